package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type feedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) GetFeed(ctx context.Context, name string) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, feed_url, COALESCE(title, ''),
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM feeds
		WHERE name = $1
	`, name).Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Title,
		&feed.LastFetchedAt, &feed.NextFetchAt, &feed.CreatedAt, &feed.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &feed, nil
}

func (r *feedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *feedRepository) UpsertFeed(ctx context.Context, name, feedURL string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (name, feed_url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = EXCLUDED.feed_url,
			updated_at = NOW()
	`, name, feedURL)

	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *feedRepository) UpdateFeedFetched(ctx context.Context, name, title string, nextFetchAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET title = $2, last_fetched_at = NOW(), next_fetch_at = $3, updated_at = NOW()
		WHERE name = $1
	`, name, title, nextFetchAt)

	if err != nil {
		return fmt.Errorf("failed to update feed fetch state: %w", err)
	}

	return nil
}
