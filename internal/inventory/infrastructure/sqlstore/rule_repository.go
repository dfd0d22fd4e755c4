package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lifecycle "power-assets/internal/lifecycle/domain"
)

const defaultRulesTable = "lifecycle_rules"

// RuleRepository is a SQL implementation for lifecycle rules.
type RuleRepository struct {
	db    DBTX
	table string
	now   func() time.Time
}

// NewRuleRepository constructs a repository.
func NewRuleRepository(db DBTX, opts ...RuleOption) *RuleRepository {
	repo := &RuleRepository{db: db, table: defaultRulesTable, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RuleOption configures the repository.
type RuleOption func(*RuleRepository)

// WithRuleClock overrides the timestamp source.
func WithRuleClock(now func() time.Time) RuleOption {
	return func(repo *RuleRepository) {
		if now != nil {
			repo.now = now
		}
	}
}

// Rules returns a rule repository bound to the pool.
func (s *Store) Rules() *RuleRepository {
	return NewRuleRepository(s.db, WithRuleClock(s.now))
}

// Get loads a rule by id.
func (r *RuleRepository) Get(ctx context.Context, id int64) (*lifecycle.Rule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, device_type, lifecycle_years, warning_months, description, is_active, created_at, updated_at
FROM %s
WHERE id = $1`, r.table)
	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// List loads every rule ordered by device type.
func (r *RuleRepository) List(ctx context.Context) ([]lifecycle.Rule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, device_type, lifecycle_years, warning_months, description, is_active, created_at, updated_at
FROM %s
ORDER BY device_type ASC, id ASC`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []lifecycle.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save inserts a new rule or updates an existing one by id.
func (r *RuleRepository) Save(ctx context.Context, rule *lifecycle.Rule) error {
	if r == nil || r.db == nil {
		return errors.New("rule repo: nil db")
	}
	if rule == nil {
		return errors.New("rule repo: nil rule")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	now := r.now()

	if rule.ID > 0 {
		query := fmt.Sprintf(`
UPDATE %s SET
	device_type = $1,
	lifecycle_years = $2,
	warning_months = $3,
	description = $4,
	is_active = $5,
	updated_at = $6
WHERE id = $7`, r.table)
		res, err := r.db.ExecContext(ctx, query,
			rule.DeviceType,
			rule.LifecycleYears,
			rule.WarningMonths,
			nullString(rule.Description),
			rule.IsActive,
			now,
			rule.ID,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return lifecycle.ErrRuleNotFound
		}
		rule.UpdatedAt = now
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	device_type,
	lifecycle_years,
	warning_months,
	description,
	is_active,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
RETURNING id`, r.table)
	if err := r.db.QueryRowContext(ctx, query,
		rule.DeviceType,
		rule.LifecycleYears,
		rule.WarningMonths,
		nullString(rule.Description),
		rule.IsActive,
		now,
		now,
	).Scan(&rule.ID); err != nil {
		return err
	}
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// Delete removes a rule by id.
func (r *RuleRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("rule repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return lifecycle.ErrRuleNotFound
	}
	return nil
}

func scanRule(row rowScanner) (*lifecycle.Rule, error) {
	var (
		rule        lifecycle.Rule
		description sql.NullString
	)
	if err := row.Scan(
		&rule.ID,
		&rule.DeviceType,
		&rule.LifecycleYears,
		&rule.WarningMonths,
		&description,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rule.Description = description.String
	rule.CreatedAt = rule.CreatedAt.UTC()
	rule.UpdatedAt = rule.UpdatedAt.UTC()
	return &rule, nil
}
