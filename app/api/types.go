package api

import (
	"github.com/feedtriage/feedtriage/app/database"
	"github.com/feedtriage/feedtriage/app/feed"
	"github.com/feedtriage/feedtriage/app/rule"
	"github.com/feedtriage/feedtriage/app/tasks"
)

type Handler struct {
	ruleRepo     database.RuleRepository
	itemRepo     database.ItemRepository
	categoryRepo database.CategoryRepository
	feedRepo     database.FeedRepository
	configCache  *feed.ConfigCache
	engine       *rule.Engine
	scheduler    tasks.TaskSchedulerInterface
	ownerID      string
}

// ruleRequest is the write payload for creating or updating a rule.
type ruleRequest struct {
	Name       string           `json:"name"`
	Enabled    *bool            `json:"enabled"`
	Conditions []rule.Condition `json:"conditions"`
	Actions    []rule.Action    `json:"actions"`
}

// testRequest carries a draft rule for a dry run. The draft does not
// have to exist in storage.
type testRequest struct {
	Name        string           `json:"name"`
	Conditions  []rule.Condition `json:"conditions"`
	Actions     []rule.Action    `json:"actions"`
	SampleCount int              `json:"sample_count"`
}

// executeRequest selects the item set for a manual single-rule run.
type executeRequest struct {
	FeedName       string `json:"feed_name"`
	UnreadOnly     bool   `json:"unread_only"`
	UnarchivedOnly bool   `json:"unarchived_only"`
	StarredOnly    bool   `json:"starred_only"`
	Tag            string `json:"tag"`
	Limit          int    `json:"limit"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type enableRequest struct {
	Enabled bool `json:"enabled"`
}

type categoryRequest struct {
	Name string `json:"name"`
}
