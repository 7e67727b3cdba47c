package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feedtriage/feedtriage/app/rule"
)

type ruleRepository struct {
	db *DB
}

// NewRuleRepository creates the postgres-backed rule store. The concrete
// type also satisfies the engine's rule.RuleStore boundary.
func NewRuleRepository(db *DB) RuleRepository {
	return &ruleRepository{db: db}
}

const ruleColumns = `id, owner_id, name, enabled, position, conditions, actions,
       matched_count, last_matched_at, created_at, updated_at`

// CreateRule validates the rule, assigns the next position for the owner
// and inserts it. Invalid rules are never persisted.
func (r *ruleRepository) CreateRule(ctx context.Context, ru *rule.Rule) error {
	if err := rule.ValidateRule(ru); err != nil {
		return err
	}

	conditions, actions, err := marshalRuleBody(ru)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO rules (owner_id, name, enabled, position, conditions, actions)
		VALUES ($1, $2, $3,
		        (SELECT COALESCE(MAX(position), 0) + 1 FROM rules WHERE owner_id = $1),
		        $4, $5)
		RETURNING id, position, created_at, updated_at
	`, ru.OwnerID, ru.Name, ru.Enabled, conditions, actions).Scan(
		&ru.ID, &ru.Position, &ru.CreatedAt, &ru.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

func (r *ruleRepository) GetRule(ctx context.Context, ownerID, id string) (*rule.Rule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM rules
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id)

	ru, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return ru, nil
}

func (r *ruleRepository) ListAll(ctx context.Context, ownerID string) ([]rule.Rule, error) {
	return r.listRules(ctx, `
		SELECT `+ruleColumns+`
		FROM rules
		WHERE owner_id = $1
		ORDER BY position ASC
	`, ownerID)
}

func (r *ruleRepository) ListEnabledOrdered(ctx context.Context, ownerID string) ([]rule.Rule, error) {
	return r.listRules(ctx, `
		SELECT `+ruleColumns+`
		FROM rules
		WHERE owner_id = $1 AND enabled = true
		ORDER BY position ASC
	`, ownerID)
}

func (r *ruleRepository) listRules(ctx context.Context, query, ownerID string) ([]rule.Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []rule.Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rules = append(rules, *ru)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}

	return rules, nil
}

// UpdateRule validates and rewrites name, enabled flag, conditions and
// actions. Position and statistics are managed elsewhere.
func (r *ruleRepository) UpdateRule(ctx context.Context, ru *rule.Rule) error {
	if err := rule.ValidateRule(ru); err != nil {
		return err
	}

	conditions, actions, err := marshalRuleBody(ru)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE rules
		SET name = $3, enabled = $4, conditions = $5, actions = $6, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
	`, ru.OwnerID, ru.ID, ru.Name, ru.Enabled, conditions, actions)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", ru.ID)
	}

	return nil
}

// DeleteRule removes the rule and compacts the positions above it so the
// sequence stays gapless.
func (r *ruleRepository) DeleteRule(ctx context.Context, ownerID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx, `
		DELETE FROM rules
		WHERE owner_id = $1 AND id = $2
		RETURNING position
	`, ownerID, id).Scan(&position)
	if err == sql.ErrNoRows {
		return fmt.Errorf("rule %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE rules
		SET position = position - 1
		WHERE owner_id = $1 AND position > $2
	`, ownerID, position)
	if err != nil {
		return fmt.Errorf("failed to compact rule positions: %w", err)
	}

	return tx.Commit()
}

func (r *ruleRepository) SetRuleEnabled(ctx context.Context, ownerID, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE rules
		SET enabled = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to set rule enabled: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}

	return nil
}

// Reorder rewrites the positions of the owner's complete rule set to the
// given ID order. The unique (owner_id, position) constraint is deferred,
// so intermediate states inside the transaction may collide.
func (r *ruleRepository) Reorder(ctx context.Context, ownerID string, ids []string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rules WHERE owner_id = $1", ownerID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count rules: %w", err)
	}
	if count != len(ids) {
		return fmt.Errorf("reorder requires all %d rules, got %d", count, len(ids))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		result, err := tx.ExecContext(ctx, `
			UPDATE rules
			SET position = $3, updated_at = NOW()
			WHERE owner_id = $1 AND id = $2
		`, ownerID, id, i+1)
		if err != nil {
			return fmt.Errorf("failed to reposition rule %s: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("rule %s not found", id)
		}
	}

	return tx.Commit()
}

// IncrementMatch is a relative update, so concurrent engine runs bumping
// the same rule cannot lose counts.
func (r *ruleRepository) IncrementMatch(ctx context.Context, ruleID string, count int, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rules
		SET matched_count = matched_count + $2, last_matched_at = $3, updated_at = NOW()
		WHERE id = $1
	`, ruleID, count, when)

	if err != nil {
		return fmt.Errorf("failed to increment match count: %w", err)
	}

	return nil
}

func marshalRuleBody(ru *rule.Rule) ([]byte, []byte, error) {
	conditions, err := json.Marshal(ru.Conditions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	actions, err := json.Marshal(ru.Actions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return conditions, actions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*rule.Rule, error) {
	var ru rule.Rule
	var conditions, actions []byte

	err := row.Scan(
		&ru.ID, &ru.OwnerID, &ru.Name, &ru.Enabled, &ru.Position,
		&conditions, &actions, &ru.MatchedCount, &ru.LastMatchedAt,
		&ru.CreatedAt, &ru.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conditions, &ru.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(actions, &ru.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &ru, nil
}
