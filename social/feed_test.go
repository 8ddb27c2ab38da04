package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/teahouse/mocks"
)

func fixedNow() time.Time {
	return time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
}

func TestFeedSeedAndOrder(t *testing.T) {
	now := fixedNow()
	f := newFeed(nil, func() time.Time { return now })

	posts := f.List()
	require.Len(t, posts, 2)
	assert.Equal(t, "post-1", posts[0].ID)
	assert.Equal(t, 1200, posts[0].Likes)

	now = now.Add(time.Minute)
	created, err := f.Create(User{Name: "Me"}, "  Shai and civic talk tonight  ")
	require.NoError(t, err)
	assert.Equal(t, "Shai and civic talk tonight", created.Content)

	posts = f.List()
	require.Len(t, posts, 3)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.Zero(t, posts[0].Likes)
}

func TestFeedRejectsBlankPost(t *testing.T) {
	f := NewFeed(nil)
	_, err := f.Create(User{Name: "Me"}, "   ")
	assert.ErrorIs(t, err, ErrEmptyPost)
	assert.Len(t, f.List(), 2)
}

func TestToggleLikeWithoutBackend(t *testing.T) {
	f := NewFeed(nil)
	ctx := context.Background()

	res, err := f.ToggleLike(ctx, "post-2", "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Likes: 451}, res)

	res, err = f.ToggleLike(ctx, "post-2", "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Likes: 450}, res)

	_, err = f.ToggleLike(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestToggleLikeRevertsOnBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockLikeBackend(ctrl)
	f := NewFeed(backend)
	ctx := context.Background()

	backend.EXPECT().SetLike(gomock.Any(), "post-1", "u1", true).Return(nil)
	res, err := f.ToggleLike(ctx, "post-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1201, res.Likes)

	backend.EXPECT().SetLike(gomock.Any(), "post-1", "u1", false).Return(errors.New("offline"))
	res, err = f.ToggleLike(ctx, "post-1", "u1")
	assert.Error(t, err)
	assert.Equal(t, LikeResult{Liked: true, Likes: 1201}, res)

	post, ok := f.Get("post-1")
	require.True(t, ok)
	assert.Equal(t, 1201, post.Likes)
}

func TestRelativeTime(t *testing.T) {
	now := fixedNow()
	tests := []struct {
		ago    time.Duration
		locale string
		want   string
	}{
		{10 * time.Second, "en", "less than a minute ago"},
		{time.Minute, "en", "1 minute ago"},
		{30 * time.Minute, "en", "30 minutes ago"},
		{3 * time.Hour, "en", "about 3 hours ago"},
		{50 * time.Minute, "en", "about 1 hour ago"},
		{48 * time.Hour, "en", "2 days ago"},
		{30 * time.Minute, "ar", "منذ 30 دقيقة"},
		{3 * time.Hour, "ku", "nêzîkî 3 saet berê"},
		{3 * time.Hour, "fr", "about 3 hours ago"},
		{800 * 24 * time.Hour, "en", "about 2 years ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now, tt.locale), "%s %s", tt.ago, tt.locale)
	}
}
