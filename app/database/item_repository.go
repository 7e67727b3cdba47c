package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/feedtriage/feedtriage/app/rule"
)

type itemRepository struct {
	db *DB
}

// NewItemRepository creates the postgres-backed item store. The concrete
// type also satisfies the engine's rule.ItemStore boundary.
func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

// psql builds queries with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var itemColumns = []string{
	"i.id",
	"COALESCE(NULLIF(f.title, ''), f.name)",
	"i.title",
	"i.content",
	"i.author",
	"COALESCE(c.name, '')",
	"COALESCE(i.category_id::text, '')",
	"i.tags",
	"i.is_read",
	"i.is_starred",
	"i.is_archived",
}

func itemQuery() sq.SelectBuilder {
	return psql.Select(itemColumns...).
		From("items i").
		Join("feeds f ON f.id = i.feed_id").
		LeftJoin("categories c ON c.id = i.category_id")
}

// UpsertItem inserts a fetched entry, keyed by (feed, guid). A re-fetched
// entry is left untouched so triage state applied by rules or the user
// survives refreshes.
func (r *itemRepository) UpsertItem(ctx context.Context, feedName string, item IncomingItem) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO items (feed_id, guid, link, title, content, author, tags, published_at, content_hash)
		SELECT f.id, $2, $3, $4, $5, $6, $7, $8, $9
		FROM feeds f
		WHERE f.name = $1
		ON CONFLICT (feed_id, guid) DO NOTHING
		RETURNING id
	`, feedName, item.GUID, item.Link, item.Title, item.Content, item.Author,
		pq.Array(item.Tags), item.PublishedAt, item.ContentHash).Scan(&id)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to upsert item: %w", err)
	}

	return id, true, nil
}

func (r *itemRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]rule.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := itemQuery().
		Where("i.id = ANY(?)", pq.Array(ids)).
		OrderBy("i.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// SelectItems returns the caller-selected item set for manual rule
// execution and the items API.
func (r *itemRepository) SelectItems(ctx context.Context, filter ItemFilter) ([]rule.Item, error) {
	q := itemQuery()

	if filter.FeedName != "" {
		q = q.Where(sq.Eq{"f.name": filter.FeedName})
	}
	if filter.UnreadOnly {
		q = q.Where(sq.Eq{"i.is_read": false})
	}
	if filter.UnarchivedOnly {
		q = q.Where(sq.Eq{"i.is_archived": false})
	}
	if filter.StarredOnly {
		q = q.Where(sq.Eq{"i.is_starred": true})
	}
	if filter.Tag != "" {
		q = q.Where("? = ANY(i.tags)", filter.Tag)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query, args, err := q.OrderBy("i.created_at DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// SampleItems returns the most recent items for rule dry runs.
func (r *itemRepository) SampleItems(ctx context.Context, limit int) ([]rule.Item, error) {
	query, args, err := itemQuery().
		OrderBy("i.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

func (r *itemRepository) queryItems(ctx context.Context, query string, args ...any) ([]rule.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []rule.Item
	for rows.Next() {
		var item rule.Item
		err := rows.Scan(
			&item.ID, &item.FeedTitle, &item.Title, &item.Content, &item.Author,
			&item.Category, &item.CategoryID, pq.Array(&item.Tags),
			&item.IsRead, &item.IsStarred, &item.IsArchived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// PersistTriage writes back the five fields the rule engine may mutate.
func (r *itemRepository) PersistTriage(ctx context.Context, item rule.Item) error {
	categoryID := sql.NullString{String: item.CategoryID, Valid: item.CategoryID != ""}

	result, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET is_read = $2, is_starred = $3, is_archived = $4, category_id = $5, tags = $6
		WHERE id = $1
	`, item.ID, item.IsRead, item.IsStarred, item.IsArchived, categoryID, pq.Array(item.Tags))
	if err != nil {
		return fmt.Errorf("failed to persist item triage state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item %s not found", item.ID)
	}

	return nil
}

func (r *itemRepository) GetItemStats(ctx context.Context) (ItemStats, error) {
	var stats ItemStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN is_read = false THEN 1 ELSE 0 END) AS unread,
			SUM(CASE WHEN is_starred = true THEN 1 ELSE 0 END) AS starred,
			SUM(CASE WHEN is_archived = true THEN 1 ELSE 0 END) AS archived
		FROM items
	`).Scan(&stats.Total, &stats.Unread, &stats.Starred, &stats.Archived)

	if err != nil {
		return ItemStats{}, fmt.Errorf("failed to get item stats: %w", err)
	}

	return stats, nil
}

func (r *itemRepository) GetItemsForExtraction(ctx context.Context, feedName string, limit int) ([]ItemForExtraction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.link
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = $1
		  AND i.content_extraction_status = 'pending'
		  AND i.link <> ''
		ORDER BY i.created_at DESC
		LIMIT $2
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	var items []ItemForExtraction
	for rows.Next() {
		var item ItemForExtraction
		if err := rows.Scan(&item.ID, &item.Link); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *itemRepository) UpdateExtractedContent(ctx context.Context, itemID, content, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET content = COALESCE(NULLIF($2, ''), content),
		    content_extraction_status = $3,
		    content_extracted_at = $4,
		    content_extraction_error = $5
		WHERE id = $1
	`, itemID, content, status, extractedAt, errorMsg)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}
