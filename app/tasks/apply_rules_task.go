package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedtriage/feedtriage/app/database"
	"github.com/feedtriage/feedtriage/app/rule"
)

// ApplyRulesTask runs the rule engine over a batch of newly stored items.
// Rule failures are reported through the execution log only; a rule that
// cannot be evaluated must never block feed ingestion or other items.
type ApplyRulesTask struct {
	Task
	engine   *rule.Engine
	itemRepo database.ItemRepository
	ownerID  string
	itemIDs  []string
}

func NewApplyRulesTask(feedName string, engine *rule.Engine, itemRepo database.ItemRepository, ownerID string, itemIDs []string) *ApplyRulesTask {
	return &ApplyRulesTask{
		Task:     NewTask(TaskTypeApplyRules, feedName),
		engine:   engine,
		itemRepo: itemRepo,
		ownerID:  ownerID,
		itemIDs:  itemIDs,
	}
}

func (t *ApplyRulesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.itemRepo.GetItemsByIDs(ctx, t.itemIDs)
	if err != nil {
		return fmt.Errorf("failed to load items for rule application: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items to apply rules to", "feed", t.FeedName)
		return nil
	}

	report := t.engine.Apply(ctx, t.ownerID, items)

	matched := 0
	for _, count := range report.RuleMatches {
		matched += count
	}

	slog.Info("Task completed",
		"type", "ApplyRules",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"items", report.ItemsProcessed,
		"failed", report.ItemsFailed,
		"matches", matched,
		"aborted", report.Aborted)

	for _, msg := range report.Errors {
		slog.Warn("Rule application problem", "feed", t.FeedName, "error", msg)
	}

	return nil
}
