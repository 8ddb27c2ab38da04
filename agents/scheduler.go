package agents

import (
	"sort"
	"sync"
	"time"
)

type ScheduledContent struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
}

// ContentSchedulerAgent keeps the posting schedule.
type ContentSchedulerAgent struct {
	mu       sync.Mutex
	schedule map[string]time.Time
}

func NewContentSchedulerAgent() *ContentSchedulerAgent {
	return &ContentSchedulerAgent{schedule: make(map[string]time.Time)}
}

// Schedule sets or replaces the posting time for id.
func (a *ContentSchedulerAgent) Schedule(id string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schedule[id] = at
}

// OptimalPostingTime returns 19:00 for reels and 12:00 for everything else,
// on the same day as now.
func (a *ContentSchedulerAgent) OptimalPostingTime(now time.Time, contentType ContentType) time.Time {
	hour := 12
	if contentType == ContentReel {
		hour = 19
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, now.Location())
}

// Scheduled returns the schedule ordered by id.
func (a *ContentSchedulerAgent) Scheduled() []ScheduledContent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ScheduledContent, 0, len(a.schedule))
	for id, t := range a.schedule {
		out = append(out, ScheduledContent{ID: id, Time: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
