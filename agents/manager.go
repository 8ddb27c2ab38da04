package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrsingh-rishi/teahouse/llm"
)

// DefaultGenerationInterval paces consecutive generations in a campaign run.
const DefaultGenerationInterval = 2 * time.Second

type SystemStatus struct {
	Campaigns        []Campaign         `json:"campaigns"`
	ScheduledContent []ScheduledContent `json:"scheduledContent"`
	Status           string             `json:"status"`
}

// SystemManager runs automated campaigns across the three agents.
type SystemManager struct {
	Content   *CreativeContentAgent
	Research  *MarketResearchAgent
	Scheduler *ContentSchedulerAgent

	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewSystemManager(generator llm.Generator, interval time.Duration, logger *slog.Logger) *SystemManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemManager{
		Content:   NewCreativeContentAgent(generator, logger),
		Research:  NewMarketResearchAgent(),
		Scheduler: NewContentSchedulerAgent(),
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// RunAutomatedCampaign generates up to n pieces for campaignID, waiting the
// generation interval between attempts. Each piece is scheduled at its
// optimal posting time as "{campaignID}-{i}". It stops early when ctx ends.
func (m *SystemManager) RunAutomatedCampaign(ctx context.Context, campaignID string, n int) ([]GeneratedContent, error) {
	limit := rate.Inf
	if m.interval > 0 {
		limit = rate.Every(m.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	m.logger.Info("Starting automated campaign", slog.String("campaign", campaignID), slog.Int("count", n))

	var generated []GeneratedContent
	for i := 0; i < n; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return generated, err
		}

		content, err := m.Content.GenerateCampaignContent(ctx, campaignID)
		if err != nil {
			if ctx.Err() != nil {
				return generated, ctx.Err()
			}
			m.logger.Warn("Campaign content generation failed",
				slog.String("campaign", campaignID), slog.String("error", err.Error()))
			continue
		}
		if content == nil {
			continue
		}

		generated = append(generated, *content)
		at := m.Scheduler.OptimalPostingTime(m.now(), content.ContentType)
		m.Scheduler.Schedule(fmt.Sprintf("%s-%d", campaignID, i), at)
		m.logger.Debug("Generated campaign content", slog.Int("index", i+1), slog.Int("total", n))
	}

	m.logger.Info("Campaign complete", slog.String("campaign", campaignID), slog.Int("generated", len(generated)))
	return generated, nil
}

func (m *SystemManager) Status() SystemStatus {
	return SystemStatus{
		Campaigns:        m.Content.Campaigns(),
		ScheduledContent: m.Scheduler.Scheduled(),
		Status:           "ACTIVE",
	}
}

func (m *SystemManager) Activate(id string) bool {
	return m.Content.Activate(id)
}

func (m *SystemManager) Pause(id string) bool {
	return m.Content.Pause(id)
}
