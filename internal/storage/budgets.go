package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/centsible/centsible/internal/model"
)

const budgetColumns = `id, remote_id, kind, category, amount, limit_percent, synced`

func scanBudgetRule(scan func(dest ...any) error) (*model.BudgetRule, error) {
	var (
		rule     model.BudgetRule
		kind     string
		category string
	)
	err := scan(&rule.ID, &rule.RemoteID, &kind, &category, &rule.Amount, &rule.LimitPercent, &rule.Synced)
	if err != nil {
		return nil, err
	}
	rule.Kind = model.BudgetKind(kind)
	rule.Category = model.Category(category)
	return &rule, nil
}

// SaveBudgetRule inserts a budget rule and assigns its local id. A general
// monthly rule upserts: the previous general rule, if any, is replaced so at
// most one is ever active.
func (s *SQLiteStorage) SaveBudgetRule(ctx context.Context, rule *model.BudgetRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudgetRule(rule); err != nil {
		return err
	}

	if rule.Kind == model.BudgetGeneralMonthly {
		return s.upsertGeneralRule(ctx, rule)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_rules (remote_id, kind, category, amount, limit_percent, synced)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rule.RemoteID, string(rule.Kind), string(rule.Category),
		rule.Amount, rule.LimitPercent, rule.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get budget rule id: %w", err)
	}
	rule.ID = id
	return nil
}

// upsertGeneralRule relies on the partial unique index over the general
// monthly kind: conflicting inserts update the existing row in place.
func (s *SQLiteStorage) upsertGeneralRule(ctx context.Context, rule *model.BudgetRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_rules (remote_id, kind, category, amount, limit_percent, synced)
		VALUES (?, ?, '', ?, 0, ?)
		ON CONFLICT(kind) WHERE kind = 'general_monthly'
		DO UPDATE SET remote_id = excluded.remote_id, amount = excluded.amount, synced = excluded.synced`,
		rule.RemoteID, string(rule.Kind), rule.Amount, rule.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert general budget rule: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM budget_rules WHERE kind = ?`, string(model.BudgetGeneralMonthly)).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to read back general budget rule: %w", err)
	}
	rule.ID = id

	slog.Debug("upserted general monthly budget rule", "id", id, "amount", rule.Amount)
	return nil
}

// GetBudgetRule returns a budget rule by local id, or nil if absent.
func (s *SQLiteStorage) GetBudgetRule(ctx context.Context, id int64) (*model.BudgetRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_rules WHERE id = ?`, id)
	rule, err := scanBudgetRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget rule: %w", err)
	}
	return rule, nil
}

// GetBudgetRuleByRemoteID returns a budget rule by its remote document id, or
// nil if no local record carries it.
func (s *SQLiteStorage) GetBudgetRuleByRemoteID(ctx context.Context, remoteID string) (*model.BudgetRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_rules WHERE remote_id = ?`, remoteID)
	rule, err := scanBudgetRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget rule by remote id: %w", err)
	}
	return rule, nil
}

// GetGeneralMonthlyRule returns the single active general monthly rule, or
// nil when none is set.
func (s *SQLiteStorage) GetGeneralMonthlyRule(ctx context.Context) (*model.BudgetRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_rules WHERE kind = ?`,
		string(model.BudgetGeneralMonthly))
	rule, err := scanBudgetRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get general monthly rule: %w", err)
	}
	return rule, nil
}

// ListBudgetRules returns every budget rule, general rule first.
func (s *SQLiteStorage) ListBudgetRules(ctx context.Context) ([]model.BudgetRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_rules
		 ORDER BY CASE kind WHEN 'general_monthly' THEN 0 ELSE 1 END, category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget rules: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetRule
	for rows.Next() {
		rule, scanErr := scanBudgetRule(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan budget rule: %w", scanErr)
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rules: %w", err)
	}
	return out, nil
}

// ListUnsyncedBudgetRules returns budget rules not yet mirrored remotely.
func (s *SQLiteStorage) ListUnsyncedBudgetRules(ctx context.Context) ([]model.BudgetRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_rules WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced budget rules: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetRule
	for rows.Next() {
		rule, scanErr := scanBudgetRule(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan budget rule: %w", scanErr)
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rules: %w", err)
	}
	return out, nil
}

// UpdateBudgetRule replaces all mutable fields of an existing budget rule.
func (s *SQLiteStorage) UpdateBudgetRule(ctx context.Context, rule *model.BudgetRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudgetRule(rule); err != nil {
		return err
	}
	if err := validateID(rule.ID, "rule.ID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE budget_rules SET
			remote_id = ?, kind = ?, category = ?, amount = ?, limit_percent = ?, synced = ?
		WHERE id = ?`,
		rule.RemoteID, string(rule.Kind), string(rule.Category),
		rule.Amount, rule.LimitPercent, rule.Synced, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget rule: %w", err)
	}
	return nil
}

// MarkBudgetRuleSynced records the remote document id and sets the synced flag.
func (s *SQLiteStorage) MarkBudgetRuleSynced(ctx context.Context, id int64, remoteID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE budget_rules SET remote_id = ?, synced = 1 WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark budget rule synced: %w", err)
	}
	return nil
}

// DeleteBudgetRule removes a budget rule by local id. Absent records are a no-op.
func (s *SQLiteStorage) DeleteBudgetRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM budget_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget rule: %w", err)
	}
	return nil
}

// DeleteBudgetRuleByRemoteID removes the budget rule mirroring a remote
// document. Absent records are a no-op.
func (s *SQLiteStorage) DeleteBudgetRuleByRemoteID(ctx context.Context, remoteID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM budget_rules WHERE remote_id = ?`, remoteID)
	if err != nil {
		return fmt.Errorf("failed to delete budget rule by remote id: %w", err)
	}
	return nil
}
