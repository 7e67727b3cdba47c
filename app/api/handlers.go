package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedtriage/feedtriage/app/database"
	"github.com/feedtriage/feedtriage/app/feed"
	"github.com/feedtriage/feedtriage/app/rule"
	"github.com/feedtriage/feedtriage/app/tasks"
)

// executeTimeout bounds a manual single-rule run over a stored item set.
const executeTimeout = 2 * time.Minute

func NewHandler(configCache *feed.ConfigCache, ruleRepo database.RuleRepository,
	itemRepo database.ItemRepository, categoryRepo database.CategoryRepository,
	feedRepo database.FeedRepository, engine *rule.Engine,
	scheduler tasks.TaskSchedulerInterface, ownerID string) *Handler {
	return &Handler{
		ruleRepo:     ruleRepo,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		feedRepo:     feedRepo,
		configCache:  configCache,
		engine:       engine,
		scheduler:    scheduler,
		ownerID:      ownerID,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.itemRepo.GetItemStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_item_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	rules, err := h.ruleRepo.ListAll(c.Request.Context(), h.ownerID)
	if err != nil {
		slog.Error("Database error", "operation", "list_rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	enabled := 0
	for _, r := range rules {
		if r.Enabled {
			enabled++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"items": gin.H{
			"total":    stats.Total,
			"unread":   stats.Unread,
			"starred":  stats.Starred,
			"archived": stats.Archived,
		},
		"rules": gin.H{
			"total":   len(rules),
			"enabled": enabled,
		},
	})
}

// Rules

func (h *Handler) APIListRules(c *gin.Context) {
	rules, err := h.ruleRepo.ListAll(c.Request.Context(), h.ownerID)
	if err != nil {
		slog.Error("Database error", "operation", "list_rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"total": len(rules),
	})
}

func (h *Handler) APICreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	r := rule.Rule{
		OwnerID:    h.ownerID,
		Name:       req.Name,
		Enabled:    enabled,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	}

	if err := h.ruleRepo.CreateRule(c.Request.Context(), &r); err != nil {
		h.renderRuleWriteError(c, "create_rule", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"rule":      r,
		"catch_all": rule.IsCatchAll(&r),
	})
}

func (h *Handler) APIGetRule(c *gin.Context) {
	r, ok := h.lookupRule(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":      r,
		"catch_all": rule.IsCatchAll(r),
	})
}

func (h *Handler) APIUpdateRule(c *gin.Context) {
	existing, ok := h.lookupRule(c)
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	existing.Name = req.Name
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	existing.Conditions = req.Conditions
	existing.Actions = req.Actions

	if err := h.ruleRepo.UpdateRule(c.Request.Context(), existing); err != nil {
		h.renderRuleWriteError(c, "update_rule", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":      existing,
		"catch_all": rule.IsCatchAll(existing),
	})
}

func (h *Handler) APIDeleteRule(c *gin.Context) {
	if _, ok := h.lookupRule(c); !ok {
		return
	}

	if err := h.ruleRepo.DeleteRule(c.Request.Context(), h.ownerID, c.Param("id")); err != nil {
		slog.Error("Database error", "operation", "delete_rule", "rule_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APISetRuleEnabled(c *gin.Context) {
	if _, ok := h.lookupRule(c); !ok {
		return
	}

	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.ruleRepo.SetRuleEnabled(c.Request.Context(), h.ownerID, c.Param("id"), req.Enabled); err != nil {
		slog.Error("Database error", "operation", "set_rule_enabled", "rule_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": req.Enabled})
}

func (h *Handler) APIReorderRules(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.ruleRepo.Reorder(c.Request.Context(), h.ownerID, req.IDs); err != nil {
		slog.Error("Failed to reorder rules", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to reorder rules", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// APITestRule dry-runs a draft rule against a sample of stored items.
// The draft does not have to be persisted; nothing is mutated.
func (h *Handler) APITestRule(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	draft := rule.Rule{
		OwnerID:    h.ownerID,
		Name:       req.Name,
		Enabled:    true,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	}
	if draft.Name == "" {
		draft.Name = "draft"
	}

	if err := rule.ValidateRule(&draft); err != nil {
		h.renderRuleWriteError(c, "test_rule", err)
		return
	}

	report, err := h.engine.Test(c.Request.Context(), draft, req.SampleCount)
	if err != nil {
		slog.Error("Rule test failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rule test failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":    report,
		"catch_all": rule.IsCatchAll(&draft),
	})
}

// APIExecuteRule runs a single stored rule against a caller-selected item
// set. The rule runs even when disabled; the request is explicit.
func (h *Handler) APIExecuteRule(c *gin.Context) {
	r, ok := h.lookupRule(c)
	if !ok {
		return
	}

	var req executeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	items, err := h.itemRepo.SelectItems(c.Request.Context(), database.ItemFilter{
		FeedName:       req.FeedName,
		UnreadOnly:     req.UnreadOnly,
		UnarchivedOnly: req.UnarchivedOnly,
		StarredOnly:    req.StarredOnly,
		Tag:            req.Tag,
		Limit:          req.Limit,
	})
	if err != nil {
		slog.Error("Database error", "operation", "select_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), executeTimeout)
	defer cancel()

	report := h.engine.ApplyRule(ctx, h.ownerID, r.ID, items)

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Items

func (h *Handler) APIListItems(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.itemRepo.SelectItems(c.Request.Context(), database.ItemFilter{
		FeedName:       c.Query("feed"),
		UnreadOnly:     c.Query("unread") == "true",
		UnarchivedOnly: c.Query("unarchived") == "true",
		StarredOnly:    c.Query("starred") == "true",
		Tag:            c.Query("tag"),
		Limit:          limit,
	})
	if err != nil {
		slog.Error("Database error", "operation", "select_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// Categories

func (h *Handler) APIListCategories(c *gin.Context) {
	categories, err := h.categoryRepo.ListCategories(c.Request.Context(), h.ownerID)
	if err != nil {
		slog.Error("Database error", "operation", "list_categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) APICreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Category name is required"})
		return
	}

	category, err := h.categoryRepo.CreateCategory(c.Request.Context(), h.ownerID, req.Name)
	if err != nil {
		slog.Error("Database error", "operation", "create_category", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *Handler) APIDeleteCategory(c *gin.Context) {
	if err := h.categoryRepo.DeleteCategory(c.Request.Context(), h.ownerID, c.Param("id")); err != nil {
		slog.Error("Failed to delete category", "category_id", c.Param("id"), "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Feeds

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if dbFeed, err := h.feedRepo.GetFeed(c.Request.Context(), feedConfig.Name); err == nil && dbFeed != nil {
			feedInfo["title"] = dbFeed.Title
			feedInfo["last_fetched_at"] = dbFeed.LastFetchedAt
			feedInfo["next_fetch_at"] = dbFeed.NextFetchAt
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

// APIReloadFeed re-reads one feed's YAML config from disk and queues a
// database sync for it.
func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"feed":    name,
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}

// lookupRule loads the path rule or renders 404/500; ok is false when a
// response has already been written.
func (h *Handler) lookupRule(c *gin.Context) (*rule.Rule, bool) {
	id := c.Param("id")

	r, err := h.ruleRepo.GetRule(c.Request.Context(), h.ownerID, id)
	if err != nil {
		slog.Error("Database error", "operation", "get_rule", "rule_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return nil, false
	}

	return r, true
}

func (h *Handler) renderRuleWriteError(c *gin.Context, op string, err error) {
	var vErr *rule.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "Rule validation failed",
			"problems": vErr.Problems,
		})
		return
	}

	slog.Error("Database error", "operation", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}
