// Package social holds the community feed, badges and referral invitations.
package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyPost    = errors.New("social: post content is empty")
	ErrPostNotFound = errors.New("social: post not found")
)

type User struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified,omitempty"`
}

type Post struct {
	ID        string    `json:"id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Shares    int       `json:"shares"`
	Timestamp time.Time `json:"timestamp"`
}

// LikeBackend persists a like toggle. When it fails the toggle is reverted.
type LikeBackend interface {
	SetLike(ctx context.Context, postID, userID string, liked bool) error
}

// LikeResult is the post state after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Feed is an in-memory list of posts with per-user likes.
type Feed struct {
	backend LikeBackend
	now     func() time.Time

	mu    sync.RWMutex
	posts []*Post
	liked map[string]map[string]bool // post id -> user id
}

// NewFeed returns a feed seeded with the welcome posts. backend may be nil.
func NewFeed(backend LikeBackend) *Feed {
	return newFeed(backend, time.Now)
}

func newFeed(backend LikeBackend, now func() time.Time) *Feed {
	f := &Feed{backend: backend, now: now, liked: make(map[string]map[string]bool)}
	t := now()
	f.posts = []*Post{
		{
			ID:        "post-1",
			Author:    User{Name: "Iraqi News", Avatar: "https://i.pravatar.cc/48?u=news", Verified: true},
			Content:   "Election day is approaching! Make sure you are registered to vote and have a plan to get to the polls. Your voice matters.",
			Image:     "https://picsum.photos/seed/election-day/800/400",
			Likes:     1200,
			Comments:  153,
			Shares:    45,
			Timestamp: t.Add(-30 * time.Minute),
		},
		{
			ID:        "post-2",
			Author:    User{Name: "Community Organizer", Avatar: "https://i.pravatar.cc/48?u=organizer"},
			Content:   "We are organizing a local town hall next week to discuss key issues with candidates. All are welcome to attend and participate in the discussion.",
			Likes:     450,
			Comments:  62,
			Shares:    12,
			Timestamp: t.Add(-3 * time.Hour),
		},
	}
	return f
}

// Create publishes a new post at the top of the feed.
func (f *Feed) Create(author User, content string) (Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Post{}, ErrEmptyPost
	}
	p := &Post{
		ID:        "post-" + uuid.NewString(),
		Author:    author,
		Content:   content,
		Timestamp: f.now(),
	}

	f.mu.Lock()
	f.posts = append(f.posts, p)
	f.mu.Unlock()
	return *p, nil
}

// List returns the posts, newest first.
func (f *Feed) List() []Post {
	f.mu.RLock()
	out := make([]Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = *p
	}
	f.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (f *Feed) Get(id string) (Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if p := f.find(id); p != nil {
		return *p, true
	}
	return Post{}, false
}

func (f *Feed) find(id string) *Post {
	for _, p := range f.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ToggleLike flips userID's like on postID right away, then confirms it with
// the backend. A backend failure reverts the flip and is returned.
func (f *Feed) ToggleLike(ctx context.Context, postID, userID string) (LikeResult, error) {
	f.mu.Lock()
	p := f.find(postID)
	if p == nil {
		f.mu.Unlock()
		return LikeResult{}, ErrPostNotFound
	}
	liked := !f.liked[postID][userID]
	f.applyLocked(p, userID, liked)
	f.mu.Unlock()

	if f.backend != nil {
		if err := f.backend.SetLike(ctx, postID, userID, liked); err != nil {
			f.mu.Lock()
			f.applyLocked(p, userID, !liked)
			res := LikeResult{Liked: !liked, Likes: p.Likes}
			f.mu.Unlock()
			return res, fmt.Errorf("like post %s: %w", postID, err)
		}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return LikeResult{Liked: f.liked[postID][userID], Likes: p.Likes}, nil
}

func (f *Feed) applyLocked(p *Post, userID string, liked bool) {
	users := f.liked[p.ID]
	if users == nil {
		users = make(map[string]bool)
		f.liked[p.ID] = users
	}
	if users[userID] == liked {
		return
	}
	if liked {
		users[userID] = true
		p.Likes++
	} else {
		delete(users, userID)
		p.Likes--
	}
}
