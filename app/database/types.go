package database

import (
	"time"
)

type Feed struct {
	ID            string
	Name          string // Subscription identifier derived from the config filename
	FeedURL       string
	Title         string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IncomingItem is the ingestion write model for one fetched entry.
// Triage state is not part of it; new items start untriaged and the rule
// engine takes it from there.
type IncomingItem struct {
	GUID        string
	Link        string
	Title       string
	Content     string
	Author      string
	Tags        []string
	PublishedAt *time.Time
	ContentHash string
}

// ItemFilter narrows the item set for manual rule execution and the
// items API.
type ItemFilter struct {
	FeedName       string
	UnreadOnly     bool
	UnarchivedOnly bool
	StarredOnly    bool
	Tag            string
	Limit          int
}

type ItemStats struct {
	Total    int
	Unread   int
	Starred  int
	Archived int
}

type ItemForExtraction struct {
	ID   string
	Link string
}
