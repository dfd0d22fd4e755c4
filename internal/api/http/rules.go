package apihttp

import (
	"net/http"
	"time"

	"power-assets/internal/audit"
	lifecycleapp "power-assets/internal/lifecycle/application"
	lifecycle "power-assets/internal/lifecycle/domain"
)

type ruleRequest struct {
	DeviceType     string `json:"device_type" validate:"required,max=128"`
	LifecycleYears int    `json:"lifecycle_years" validate:"required,gt=0,lte=100"`
	WarningMonths  *int   `json:"warning_months" validate:"omitempty,gte=0,lte=120"`
	Description    string `json:"description"`
	IsActive       *bool  `json:"is_active"`
}

func (req ruleRequest) input() lifecycleapp.RuleInput {
	return lifecycleapp.RuleInput{
		DeviceType:     req.DeviceType,
		LifecycleYears: req.LifecycleYears,
		WarningMonths:  req.WarningMonths,
		Description:    req.Description,
		IsActive:       req.IsActive,
	}
}

type ruleResponse struct {
	ID             int64     `json:"id"`
	DeviceType     string    `json:"device_type"`
	LifecycleYears int       `json:"lifecycle_years"`
	WarningMonths  int       `json:"warning_months"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toRuleResponse(r lifecycle.Rule) ruleResponse {
	return ruleResponse{
		ID:             r.ID,
		DeviceType:     r.DeviceType,
		LifecycleYears: r.LifecycleYears,
		WarningMonths:  r.WarningMonths,
		Description:    r.Description,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.deps.Rules.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rule, err := h.deps.Rules.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleResponse(*rule))
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rule, err := h.deps.Rules.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionCreate, audit.ResourceLifecycleRule, rule.ID, map[string]string{"device_type": rule.DeviceType})
	writeJSON(w, http.StatusCreated, toRuleResponse(*rule))
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rule, err := h.deps.Rules.Update(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionUpdate, audit.ResourceLifecycleRule, rule.ID, map[string]string{"device_type": rule.DeviceType})
	writeJSON(w, http.StatusOK, toRuleResponse(*rule))
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Rules.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logAudit(r, audit.ActionDelete, audit.ResourceLifecycleRule, id, nil)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}
