package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"power-assets/internal/inventory/infrastructure/sqlstore"
	lifecycle "power-assets/internal/lifecycle/domain"
)

// RuleInput carries the editable fields of a rule. Nil pointers take the
// defaults: six warning months and active.
type RuleInput struct {
	DeviceType     string
	LifecycleYears int
	WarningMonths  *int
	Description    string
	IsActive       *bool
}

func (in RuleInput) rule() lifecycle.Rule {
	rule := lifecycle.Rule{
		DeviceType:     strings.TrimSpace(in.DeviceType),
		LifecycleYears: in.LifecycleYears,
		WarningMonths:  lifecycle.DefaultWarningMonths,
		Description:    strings.TrimSpace(in.Description),
		IsActive:       true,
	}
	if in.WarningMonths != nil {
		rule.WarningMonths = *in.WarningMonths
	}
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	return rule
}

// RuleService manages lifecycle rules.
type RuleService struct {
	store  *sqlstore.Store
	logger logrus.FieldLogger
}

// NewRuleService constructs a rule service.
func NewRuleService(store *sqlstore.Store, logger logrus.FieldLogger) (*RuleService, error) {
	if store == nil {
		return nil, errors.New("rule service: nil store")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RuleService{store: store, logger: logger}, nil
}

// List returns every rule ordered by device type.
func (s *RuleService) List(ctx context.Context) ([]lifecycle.Rule, error) {
	return s.store.Rules().List(ctx)
}

// Get loads one rule.
func (s *RuleService) Get(ctx context.Context, id int64) (*lifecycle.Rule, error) {
	rule, err := s.store.Rules().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, lifecycle.ErrRuleNotFound
	}
	return rule, nil
}

// RuleSet indexes the active rules for classification.
func (s *RuleService) RuleSet(ctx context.Context) (lifecycle.RuleSet, error) {
	rules, err := s.store.Rules().List(ctx)
	if err != nil {
		return lifecycle.RuleSet{}, err
	}
	return lifecycle.NewRuleSet(rules), nil
}

// Create adds a rule. A rule whose device type folds to the key of an
// existing rule is rejected.
func (s *RuleService) Create(ctx context.Context, in RuleInput) (*lifecycle.Rule, error) {
	rule := in.rule()
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		if err := ensureKeyFree(ctx, tx.Rules, rule.DeviceType, 0); err != nil {
			return err
		}
		return tx.Rules.Save(ctx, &rule)
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"rule_id": rule.ID, "device_type": rule.DeviceType}).Info("lifecycle rule created")
	return &rule, nil
}

// Update replaces a rule's fields.
func (s *RuleService) Update(ctx context.Context, id int64, in RuleInput) (*lifecycle.Rule, error) {
	rule := in.rule()
	rule.ID = id
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		existing, err := tx.Rules.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return lifecycle.ErrRuleNotFound
		}
		if err := ensureKeyFree(ctx, tx.Rules, rule.DeviceType, id); err != nil {
			return err
		}
		rule.CreatedAt = existing.CreatedAt
		return tx.Rules.Save(ctx, &rule)
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, id int64) error {
	return s.store.Rules().Delete(ctx, id)
}

// Seed creates rules for device types that have none yet. Existing rules
// are never modified. It returns the number of rules created.
func (s *RuleService) Seed(ctx context.Context, seeds []RuleInput) (int, error) {
	created := 0
	err := s.store.InTx(ctx, func(tx *sqlstore.Tx) error {
		for _, seed := range seeds {
			rule := seed.rule()
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("seed %q: %w", seed.DeviceType, err)
			}
			err := ensureKeyFree(ctx, tx.Rules, rule.DeviceType, 0)
			if errors.Is(err, lifecycle.ErrRuleExists) {
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.Rules.Save(ctx, &rule); err != nil {
				return fmt.Errorf("seed %q: %w", seed.DeviceType, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.WithField("created", created).Info("lifecycle rules seeded")
	}
	return created, nil
}

func ensureKeyFree(ctx context.Context, repo *sqlstore.RuleRepository, deviceType string, selfID int64) error {
	rules, err := repo.List(ctx)
	if err != nil {
		return err
	}
	key := lifecycle.NormalizeKey(deviceType)
	for _, other := range rules {
		if other.ID != selfID && lifecycle.NormalizeKey(other.DeviceType) == key {
			return fmt.Errorf("%w: %s", lifecycle.ErrRuleExists, other.DeviceType)
		}
	}
	return nil
}
