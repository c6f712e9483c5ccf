package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/gate"
	"github.com/a1davida1/TPilot-sub011/app/ingest"
	"github.com/a1davida1/TPilot-sub011/app/lint"
	"github.com/a1davida1/TPilot-sub011/app/registry"
	"github.com/a1davida1/TPilot-sub011/app/rules"
	"github.com/a1davida1/TPilot-sub011/app/tasks"
)

func NewHandler(ruleRepo database.RuleRepository, eventRepo database.EventRepository,
	userRepo database.UserRepository, linter *lint.Linter, previewGate *gate.Gate,
	ingestService *ingest.Service, configCache *registry.ConfigCache,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		ruleRepo:      ruleRepo,
		eventRepo:     eventRepo,
		userRepo:      userRepo,
		linter:        linter,
		gate:          previewGate,
		ingestService: ingestService,
		configCache:   configCache,
		scheduler:     scheduler,
	}
}

// Lint evaluates a candidate post and records a preview event.
func (h *Handler) Lint(c *gin.Context) {
	user, ok := h.requireProUser(c)
	if !ok {
		return
	}

	var req LintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.linter.Run(c.Request.Context(), lint.Input{
		UserID:    user.ID,
		Subreddit: req.Subreddit,
		Title:     req.Title,
		Body:      req.Body,
		HasLink:   req.HasLink,
	})
	if err != nil {
		if errors.Is(err, lint.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Lint failed", "user_id", user.ID, "subreddit", req.Subreddit, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lint evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPreviewStats returns a user's rolling-window lint history.
func (h *Handler) GetPreviewStats(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	c.JSON(http.StatusOK, h.gate.GetPreviewStats(userID))
}

// CheckPreviewGate returns the queueing gate decision for a user.
func (h *Handler) CheckPreviewGate(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	c.JSON(http.StatusOK, h.gate.CheckPreviewGate(userID))
}

// GetUserEvents returns a user's most recent preview events, newest first.
func (h *Handler) GetUserEvents(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	events, err := h.eventRepo.GetRecentEvents(userID, 50)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_events", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]gin.H, 0, len(events))
	for _, ev := range events {
		list = append(list, gin.H{
			"id":            ev.ID,
			"subreddit":     ev.Subreddit,
			"title_preview": ev.TitlePreview,
			"policy_state":  ev.PolicyState,
			"warnings":      ev.Warnings,
			"created_at":    ev.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"events": list, "count": len(list)})
}

// ListCommunities returns all registered communities with sync metadata.
func (h *Handler) ListCommunities(c *gin.Context) {
	communities, err := h.ruleRepo.ListCommunities()
	if err != nil {
		slog.Error("Database error", "operation", "list_communities", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]gin.H, 0, len(communities))
	for _, community := range communities {
		list = append(list, gin.H{
			"name":         community.Name,
			"fetched_at":   community.FetchedAt,
			"next_sync_at": community.NextSyncAt,
			"created_at":   community.CreatedAt,
			"updated_at":   community.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"communities": list, "count": len(list)})
}

// GetCommunity returns a community's stored RuleSpec and its projected
// read-model view.
func (h *Handler) GetCommunity(c *gin.Context) {
	name := c.Param("name")

	spec, err := h.ruleRepo.GetRuleSpec(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_rule_spec", "community", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if spec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No rules on file for this community"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spec": spec,
		"view": rules.BuildCommunityView(*spec),
	})
}

// SyncCommunity reloads the community's registry config (picking up fresh
// curator overrides) and enqueues a sync task.
func (h *Handler) SyncCommunity(c *gin.Context) {
	name := c.Param("name")

	if h.configCache != nil {
		if _, err := h.configCache.GetConfig(name); err == nil {
			config, err := h.configCache.LoadConfig(name)
			if err != nil {
				slog.Error("Error reloading community configuration", "community", name, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Failed to reload community configuration",
					"details": err.Error(),
				})
				return
			}
			if !config.Enabled {
				c.JSON(http.StatusConflict, gin.H{"error": "Community is disabled in the registry"})
				return
			}
		}
	}

	if err := h.ruleRepo.RegisterCommunity(name); err != nil {
		slog.Error("Error registering community", "community", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register community"})
		return
	}

	syncTask := tasks.NewSyncCommunityTask(name, h.ingestService)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "community", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Sync task enqueued successfully",
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}

// SyncAll kicks off a best-effort full sync in the background.
func (h *Handler) SyncAll(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		report, err := h.ingestService.SyncAll(ctx)
		if err != nil {
			slog.Error("Full sync failed", "error", err)
			return
		}
		for name, syncErr := range report.Failed {
			slog.Warn("Community failed during full sync", "community", name, "error", syncErr)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Full sync started",
	})
}

// HealthCheck reports service liveness and basic store reachability.
func (h *Handler) HealthCheck(c *gin.Context) {
	if _, err := h.ruleRepo.GetCommunityCount(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats returns service-level counters.
func (h *Handler) GetStats(c *gin.Context) {
	communityCount, err := h.ruleRepo.GetCommunityCount()
	if err != nil {
		slog.Error("Database error", "operation", "community_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	eventCount, err := h.eventRepo.GetEventCount()
	if err != nil {
		slog.Error("Database error", "operation", "event_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"communities":    communityCount,
		"preview_events": eventCount,
	})
}

// requireProUser resolves the calling user from the X-User-ID header and
// enforces the Pro+ tier requirement for lint access. Authentication
// itself belongs to the gateway in front of this service; the header is
// trusted.
func (h *Handler) requireProUser(c *gin.Context) (*database.User, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return nil, false
	}

	user, err := h.userRepo.GetUser(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}

	if !tierAtLeast(user.Tier, minLintTier) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":         "Post preview requires a Pro subscription",
			"tier":          user.Tier,
			"required_tier": minLintTier,
		})
		return nil, false
	}

	return user, true
}
