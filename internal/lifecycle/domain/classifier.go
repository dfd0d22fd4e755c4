package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a device.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// ParseStatus accepts a status name; "all" and "" return false.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusNormal:
		return StatusNormal, true
	case StatusWarning:
		return StatusWarning, true
	case StatusExpired:
		return StatusExpired, true
	case StatusUnknown:
		return StatusUnknown, true
	}
	return "", false
}

// Unknown reasons.
const (
	ReasonNoRule            = "未配置规则"
	ReasonCommissionMissing = "投产日期未填写"
	ReasonDateUnrecognized  = "投产日期格式无法识别"
)

// Classification is the outcome of classifying one device.
// Numeric fields are only set when Status is not unknown.
type Classification struct {
	Status         Status     `json:"status"`
	Reason         string     `json:"status_text"`
	CommissionDate *time.Time `json:"commission_date_parsed,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	DaysInService  int        `json:"days_in_service"`
	RemainingDays  int        `json:"remaining_days"`
	LifecycleYears int        `json:"lifecycle_years"`
	WarningMonths  int        `json:"warning_months"`
}

// Classify derives a device's lifecycle status from its type, raw
// commission date and the active rules as of now.
//
// remaining = years*365 - days_in_service; negative is expired, within
// warning_months*30 is warning, anything else is normal.
func Classify(deviceType, commissionDate string, rules RuleSet, now time.Time) Classification {
	rule, ok := rules.Lookup(deviceType)
	if !ok {
		return Classification{Status: StatusUnknown, Reason: ReasonNoRule}
	}
	if strings.TrimSpace(commissionDate) == "" {
		return Classification{Status: StatusUnknown, Reason: ReasonCommissionMissing}
	}
	commissioned, ok := NormalizeDate(commissionDate)
	if !ok {
		return Classification{Status: StatusUnknown, Reason: ReasonDateUnrecognized}
	}

	days := DaysBetween(commissioned, now)
	remaining := rule.LifecycleDays() - days
	expiry := commissioned.AddDate(0, 0, rule.LifecycleDays())

	result := Classification{
		CommissionDate: &commissioned,
		ExpiryDate:     &expiry,
		DaysInService:  days,
		RemainingDays:  remaining,
		LifecycleYears: rule.LifecycleYears,
		WarningMonths:  rule.WarningMonths,
	}
	switch {
	case remaining < 0:
		result.Status = StatusExpired
		result.Reason = fmt.Sprintf("已超期 %d 天", -remaining)
	case remaining <= rule.WarningDays():
		result.Status = StatusWarning
		result.Reason = fmt.Sprintf("临近超限，剩余 %d 天", remaining)
	default:
		result.Status = StatusNormal
		result.Reason = fmt.Sprintf("正常，剩余 %d 天", remaining)
	}
	return result
}

// Statistics counts devices per status.
type Statistics struct {
	Total   int `json:"total"`
	Normal  int `json:"normal"`
	Warning int `json:"warning"`
	Expired int `json:"expired"`
	Unknown int `json:"unknown"`
}

// Add counts one classification.
func (s *Statistics) Add(status Status) {
	s.Total++
	switch status {
	case StatusNormal:
		s.Normal++
	case StatusWarning:
		s.Warning++
	case StatusExpired:
		s.Expired++
	default:
		s.Unknown++
	}
}
