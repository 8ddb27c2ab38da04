package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/mrsingh-rishi/teahouse/calendar"
	"github.com/mrsingh-rishi/teahouse/candidates"
	"github.com/mrsingh-rishi/teahouse/llm"
	"github.com/mrsingh-rishi/teahouse/social"
)

const maxCampaignRun = 10

// Candidates

func (s *Server) listCandidates(c *fiber.Ctx) error {
	f := candidates.Filters{
		Query:        c.Query("query"),
		Search:       c.Query("search"),
		Governorate:  c.Query("governorate"),
		Province:     c.Query("province"),
		Party:        c.Query("party"),
		Constituency: c.Query("constituency"),
		Gender:       c.Query("gender"),
		Page:         c.QueryInt("page"),
		Limit:        c.QueryInt("limit"),
	}
	page, err := s.opts.Candidates.List(c.UserContext(), f)
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(fiber.Map{
		"data":       page.Data,
		"total":      page.Total,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages(),
	})
}

func (s *Server) searchCandidates(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q is required")
	}
	found, err := s.opts.Candidates.Search(c.UserContext(), q)
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(found)
}

func (s *Server) getCandidate(c *fiber.Ctx) error {
	candidate, err := s.opts.Candidates.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(candidate)
}

// stats never fails: on timeout or error it serves zeroed figures.
func (s *Server) stats(c *fiber.Ctx) error {
	stats, err := s.opts.Candidates.StatsWithFallback(c.UserContext(), s.cfg.Candidates.GetStatsTimeout())
	if err != nil && s.metrics != nil {
		s.metrics.RecordStatsFallback()
	}
	return c.JSON(stats)
}

func (s *Server) governorates(c *fiber.Ctx) error {
	list, err := s.opts.Candidates.Governorates(c.UserContext())
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(list)
}

func (s *Server) provinces(c *fiber.Ctx) error {
	list, err := s.opts.Candidates.Provinces(c.UserContext())
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(list)
}

func (s *Server) parties(c *fiber.Ctx) error {
	list, err := s.opts.Candidates.Parties(c.UserContext())
	if err != nil {
		return s.upstream(err)
	}
	return c.JSON(list)
}

// Feed

type createPostRequest struct {
	Author  social.User `json:"author"`
	Content string      `json:"content"`
}

type likeRequest struct {
	UserID string `json:"userId"`
}

type postView struct {
	social.Post
	Posted string `json:"posted"`
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	loc := c.Query("locale", "en")
	now := s.now()
	posts := s.opts.Feed.List()
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = postView{Post: p, Posted: social.RelativeTime(p.Timestamp, now, loc)}
	}
	return c.JSON(out)
}

func (s *Server) createPost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	post, err := s.opts.Feed.Create(req.Author, req.Content)
	if errors.Is(err, social.ErrEmptyPost) {
		return fiber.NewError(fiber.StatusBadRequest, "content is required")
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// generatePost drafts a post with the text model. The fallback text is
// still returned when generation fails.
func (s *Server) generatePost(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.LLM.GetTimeout())
	defer cancel()

	text, err := s.opts.Generator.GenerateSocialPost(ctx)
	if err == nil {
		return c.JSON(fiber.Map{"content": text})
	}
	if !errors.Is(err, llm.ErrUnavailable) {
		if s.metrics != nil {
			s.metrics.RecordUpstreamError("llm")
		}
		s.logger.Warn("Social post generation failed", slog.String("error", err.Error()))
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"content": text, "error": err.Error()})
}

func (s *Server) toggleLike(c *fiber.Ctx) error {
	var req likeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	if req.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}
	res, err := s.opts.Feed.ToggleLike(c.UserContext(), c.Params("id"), req.UserID)
	switch {
	case errors.Is(err, social.ErrPostNotFound):
		return fiber.NewError(fiber.StatusNotFound, "post not found")
	case err != nil:
		s.logger.Warn("Like reverted", slog.String("post", c.Params("id")), slog.String("error", err.Error()))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"liked": res.Liked,
			"likes": res.Likes,
			"error": "like could not be saved",
		})
	}
	return c.JSON(res)
}

// Badges and referrals

func (s *Server) evaluateBadges(c *fiber.Ctx) error {
	var activity social.Activity
	if err := c.BodyParser(&activity); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	return c.JSON(social.Evaluate(activity))
}

type referralRequest struct {
	Origin string `json:"origin"`
}

type inviteRequest struct {
	Phone string `json:"phone"`
	URL   string `json:"url"`
}

func (s *Server) createReferral(c *fiber.Ctx) error {
	var req referralRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
		}
	}
	origin := req.Origin
	if origin == "" {
		origin = c.BaseURL()
	}
	code := social.NewCode()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"code": code,
		"url":  social.ShareURL(origin, code),
	})
}

func (s *Server) invite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	if req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	sid, err := s.opts.Referrals.Invite(c.UserContext(), req.Phone, req.URL)
	switch {
	case errors.Is(err, social.ErrInvalidPhone):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, social.ErrInvitesDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case err != nil:
		if s.metrics != nil {
			s.metrics.RecordUpstreamError("twilio")
		}
		s.logger.Warn("Referral invite failed", slog.String("error", err.Error()))
		return fiber.NewError(fiber.StatusBadGateway, "invitation could not be sent")
	}
	return c.JSON(fiber.Map{"sid": sid})
}

// Agents

func (s *Server) agentsStatus(c *fiber.Ctx) error {
	return c.JSON(s.opts.Agents.Status())
}

func (s *Server) runCampaign(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.opts.Agents.Content.Campaign(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "campaign not found")
	}
	n := c.QueryInt("count", 1)
	if n < 1 || n > maxCampaignRun {
		return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 10")
	}

	generated, err := s.opts.Agents.RunAutomatedCampaign(c.UserContext(), id, n)
	if err != nil {
		return fiber.NewError(fiber.StatusRequestTimeout, err.Error())
	}
	return c.JSON(fiber.Map{"campaign": id, "generated": generated})
}

func (s *Server) pauseCampaign(c *fiber.Ctx) error {
	if !s.opts.Agents.Pause(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "campaign not found")
	}
	campaign, _ := s.opts.Agents.Content.Campaign(c.Params("id"))
	return c.JSON(campaign)
}

func (s *Server) activateCampaign(c *fiber.Ctx) error {
	if !s.opts.Agents.Activate(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "campaign not found")
	}
	campaign, _ := s.opts.Agents.Content.Campaign(c.Params("id"))
	return c.JSON(campaign)
}

func (s *Server) calendar(c *fiber.Ctx) error {
	now := s.now()
	return c.JSON(fiber.Map{
		"ramadan": calendar.IsRamadan(now),
		"theme":   calendar.Theme(now),
		"hijri":   calendar.ToHijri(now),
	})
}
