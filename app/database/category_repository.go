package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feedtriage/feedtriage/app/rule"
)

type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates the postgres-backed category store. The
// concrete type also satisfies the engine's rule.CategoryProvider
// boundary for assignCategory existence checks.
func NewCategoryRepository(db *DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetCategory(ctx context.Context, id string) (*rule.Category, error) {
	var category rule.Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name FROM categories WHERE id = $1
	`, id).Scan(&category.ID, &category.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context, ownerID string) ([]rule.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM categories WHERE owner_id = $1 ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []rule.Category
	for rows.Next() {
		var category rule.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) CreateCategory(ctx context.Context, ownerID, name string) (*rule.Category, error) {
	var category rule.Category
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, name
	`, ownerID, name).Scan(&category.ID, &category.Name)

	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &category, nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM categories WHERE owner_id = $1 AND id = $2
	`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category %s not found", id)
	}

	return nil
}
