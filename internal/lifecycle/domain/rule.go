package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// DefaultWarningMonths applies when a rule omits its warning window.
const DefaultWarningMonths = 6

var (
	// ErrRuleNotFound indicates the rule does not exist.
	ErrRuleNotFound = errors.New("lifecycle rule not found")
	// ErrRuleExists indicates another rule already answers the device type.
	ErrRuleExists = errors.New("lifecycle rule already exists for device type")
	// ErrInvalidRule indicates a rule payload failed validation.
	ErrInvalidRule = errors.New("invalid lifecycle rule")
)

// Rule is the service-life policy for one device type.
type Rule struct {
	ID             int64
	DeviceType     string
	LifecycleYears int
	WarningMonths  int
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks rule invariants.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.DeviceType) == "" {
		return errors.Join(ErrInvalidRule, errors.New("empty device type"))
	}
	if r.LifecycleYears <= 0 {
		return errors.Join(ErrInvalidRule, errors.New("lifecycle years must be positive"))
	}
	if r.WarningMonths < 0 {
		return errors.Join(ErrInvalidRule, errors.New("warning months must not be negative"))
	}
	return nil
}

// LifecycleDays is the expected service life in fixed 365-day years.
func (r Rule) LifecycleDays() int { return r.LifecycleYears * 365 }

// WarningDays is the warning window in fixed 30-day months.
func (r Rule) WarningDays() int { return r.WarningMonths * 30 }

var folder = cases.Fold()

// NormalizeKey folds a device type for rule lookup. Full-width forms are
// narrowed, whitespace runs collapse to one space and case is folded.
func NormalizeKey(deviceType string) string {
	key := width.Narrow.String(deviceType)
	key = strings.Join(strings.Fields(key), " ")
	return folder.String(key)
}

// RuleSet answers rule lookups by normalized device type.
type RuleSet struct {
	byKey map[string]Rule
}

// NewRuleSet indexes the active rules. When two rules fold to the same
// key the one with the lowest id wins.
func NewRuleSet(rules []Rule) RuleSet {
	set := RuleSet{byKey: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		key := NormalizeKey(rule.DeviceType)
		if existing, ok := set.byKey[key]; ok && existing.ID <= rule.ID {
			continue
		}
		set.byKey[key] = rule
	}
	return set
}

// Lookup finds the active rule for a device type.
func (s RuleSet) Lookup(deviceType string) (Rule, bool) {
	if strings.TrimSpace(deviceType) == "" || s.byKey == nil {
		return Rule{}, false
	}
	rule, ok := s.byKey[NormalizeKey(deviceType)]
	return rule, ok
}

// Len returns the number of indexed rules.
func (s RuleSet) Len() int { return len(s.byKey) }

// RuleRepository manages rule persistence.
type RuleRepository interface {
	Get(ctx context.Context, id int64) (*Rule, error)
	List(ctx context.Context) ([]Rule, error)
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, id int64) error
}
