package database

import (
	"context"
	"time"

	"github.com/feedtriage/feedtriage/app/rule"
)

type FeedRepository interface {
	GetFeed(ctx context.Context, name string) (*Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	UpsertFeed(ctx context.Context, name, feedURL string) error
	UpdateFeedFetched(ctx context.Context, name, title string, nextFetchAt time.Time) error
}

type ItemRepository interface {
	// UpsertItem stores a fetched entry; returns the item ID and whether
	// the row is genuinely new (false for re-fetched duplicates).
	UpsertItem(ctx context.Context, feedName string, item IncomingItem) (string, bool, error)

	GetItemsByIDs(ctx context.Context, ids []string) ([]rule.Item, error)
	SelectItems(ctx context.Context, filter ItemFilter) ([]rule.Item, error)
	SampleItems(ctx context.Context, limit int) ([]rule.Item, error)
	GetItemStats(ctx context.Context) (ItemStats, error)

	PersistTriage(ctx context.Context, item rule.Item) error

	GetItemsForExtraction(ctx context.Context, feedName string, limit int) ([]ItemForExtraction, error)
	UpdateExtractedContent(ctx context.Context, itemID, content, status string, extractedAt *time.Time, errorMsg string) error
}

// RuleRepository owns rule persistence, ordering and write-time
// validation. Positions are unique per owner and compacted on delete.
type RuleRepository interface {
	CreateRule(ctx context.Context, r *rule.Rule) error
	GetRule(ctx context.Context, ownerID, id string) (*rule.Rule, error)
	ListAll(ctx context.Context, ownerID string) ([]rule.Rule, error)
	ListEnabledOrdered(ctx context.Context, ownerID string) ([]rule.Rule, error)
	UpdateRule(ctx context.Context, r *rule.Rule) error
	DeleteRule(ctx context.Context, ownerID, id string) error
	SetRuleEnabled(ctx context.Context, ownerID, id string, enabled bool) error
	Reorder(ctx context.Context, ownerID string, ids []string) error

	IncrementMatch(ctx context.Context, ruleID string, count int, when time.Time) error
}

type CategoryRepository interface {
	// GetCategory returns nil, nil when the category does not exist.
	GetCategory(ctx context.Context, id string) (*rule.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]rule.Category, error)
	CreateCategory(ctx context.Context, ownerID, name string) (*rule.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id string) error
}
