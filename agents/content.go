// Package agents coordinates automated campaign content: generation,
// governorate targeting and posting schedules.
package agents

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrsingh-rishi/teahouse/llm"
)

type ContentType string

const (
	ContentPost  ContentType = "post"
	ContentReel  ContentType = "reel"
	ContentStory ContentType = "story"
)

type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Target      string         `json:"target"`
	ContentType ContentType    `json:"contentType"`
	Language    string         `json:"language"`
	Status      CampaignStatus `json:"status"`
}

type GeneratedContent struct {
	Content        string      `json:"content"`
	ContentType    ContentType `json:"contentType"`
	Hashtags       []string    `json:"hashtags"`
	TargetAudience string      `json:"targetAudience"`
	Governorates   []string    `json:"governorates"`
}

var campaignHashtags = map[string][]string{
	"youth-engagement":   {"#شباب_العراق", "#الانتخابات_2025", "#صوت_الشباب"},
	"women-empowerment":  {"#النساء_في_السياسة", "#المرأة_العراقية", "#التمكين"},
	"minority-inclusion": {"#التنوع", "#الأقليات", "#الديمقراطية"},
}

var defaultHashtags = []string{"#انتخابات_العراق"}

var campaignGovernorates = map[string][]string{
	"youth-engagement":  {"baghdad", "basra", "erbil", "sulaymaniyah"},
	"women-empowerment": {"najaf", "karbala", "baghdad", "nineveh"},
}

var defaultGovernorates = []string{"baghdad"}

func seedCampaigns() []*Campaign {
	return []*Campaign{
		{ID: "youth-engagement", Name: "Youth Voter Engagement", Target: "18-35 years", ContentType: ContentPost, Language: "ar", Status: CampaignActive},
		{ID: "women-empowerment", Name: "Women in Politics", Target: "Female voters", ContentType: ContentReel, Language: "ar", Status: CampaignActive},
		{ID: "minority-inclusion", Name: "Minority Representation", Target: "Minority communities", ContentType: ContentPost, Language: "ku", Status: CampaignActive},
	}
}

// CreativeContentAgent writes campaign posts with a text generator.
type CreativeContentAgent struct {
	generator llm.Generator
	logger    *slog.Logger

	mu        sync.RWMutex
	campaigns []*Campaign
}

func NewCreativeContentAgent(generator llm.Generator, logger *slog.Logger) *CreativeContentAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreativeContentAgent{
		generator: generator,
		logger:    logger,
		campaigns: seedCampaigns(),
	}
}

// GenerateCampaignContent returns nil for unknown or inactive campaigns. A
// generator failure still yields content carrying the generator's fallback text.
func (a *CreativeContentAgent) GenerateCampaignContent(ctx context.Context, campaignID string) (*GeneratedContent, error) {
	campaign, ok := a.Campaign(campaignID)
	if !ok || campaign.Status != CampaignActive {
		return nil, nil
	}

	text, err := a.generator.GenerateSocialPost(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if text == "" {
			return nil, err
		}
		a.logger.Warn("Content generation failed, using fallback text",
			slog.String("campaign", campaignID), slog.String("error", err.Error()))
	}

	contentType := ContentPost
	if campaign.ContentType == ContentReel {
		contentType = ContentReel
	}
	return &GeneratedContent{
		Content:        text,
		ContentType:    contentType,
		Hashtags:       hashtagsFor(campaign.ID),
		TargetAudience: campaign.Target,
		Governorates:   governoratesFor(campaign.ID),
	}, nil
}

func hashtagsFor(id string) []string {
	if tags, ok := campaignHashtags[id]; ok {
		return append([]string(nil), tags...)
	}
	return append([]string(nil), defaultHashtags...)
}

func governoratesFor(id string) []string {
	if govs, ok := campaignGovernorates[id]; ok {
		return append([]string(nil), govs...)
	}
	return append([]string(nil), defaultGovernorates...)
}

// Campaign returns a copy of the campaign with id.
func (a *CreativeContentAgent) Campaign(id string) (Campaign, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.campaigns {
		if c.ID == id {
			return *c, true
		}
	}
	return Campaign{}, false
}

// Campaigns returns copies of every campaign in seed order.
func (a *CreativeContentAgent) Campaigns() []Campaign {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Campaign, len(a.campaigns))
	for i, c := range a.campaigns {
		out[i] = *c
	}
	return out
}

func (a *CreativeContentAgent) Activate(id string) bool {
	return a.setStatus(id, CampaignActive)
}

func (a *CreativeContentAgent) Pause(id string) bool {
	return a.setStatus(id, CampaignPaused)
}

func (a *CreativeContentAgent) setStatus(id string, status CampaignStatus) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.campaigns {
		if c.ID == id {
			c.Status = status
			return true
		}
	}
	return false
}
