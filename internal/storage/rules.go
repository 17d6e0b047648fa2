package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/rule"
)

// SaveRule inserts or updates a rule. Validation failures are surfaced to
// the caller: a malformed rule is never persisted.
func (s *SQLiteStorage) SaveRule(ctx context.Context, r *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(r); err != nil {
		return err
	}

	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal rule conditions: %w", err)
	}

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (id, name, conditions, account, confidence, source, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			conditions = excluded.conditions,
			account = excluded.account,
			confidence = excluded.confidence,
			source = excluded.source,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, r.ID, r.Name, string(conditions), r.Account, r.Confidence,
		string(r.Source), r.IsActive, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// GetRule retrieves a rule by ID, active or not.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, conditions, account, confidence, source, is_active, created_at, updated_at
		FROM rules WHERE id = ?
	`, id)

	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return r, nil
}

// ListActiveRules retrieves all active rules.
func (s *SQLiteStorage) ListActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, conditions, account, confidence, source, is_active, created_at, updated_at
		FROM rules
		WHERE is_active = 1
		ORDER BY source ASC, confidence DESC, updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// DeactivateRule soft-deletes a rule. Classifications that referenced it
// remain valid; the rule simply stops matching.
func (s *SQLiteStorage) DeactivateRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE rules SET is_active = 0, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func scanRule(row scanner) (*model.Rule, error) {
	var r model.Rule
	var conditions, source string

	if err := row.Scan(
		&r.ID, &r.Name, &conditions, &r.Account, &r.Confidence,
		&source, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
		return nil, fmt.Errorf("%w: corrupt conditions for rule %s: %v", common.ErrInvalidRule, r.ID, err)
	}
	r.Source = model.RuleSource(source)

	return &r, nil
}
