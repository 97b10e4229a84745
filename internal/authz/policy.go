// Package authz decides who may do what to a record. The disclosure call
// sites consult a Policy so the matrix can be tightened without touching the
// protocol code.
package authz

import (
	"context"

	"sigil/pkg/domain"
)

// Action names a policy-relevant operation.
type Action string

const (
	ActionSubmit                Action = "submit"
	ActionRead                  Action = "read"
	ActionRequestDisclosure     Action = "request_disclosure"
	ActionRequestAnalysis       Action = "request_analysis"
	ActionSubmitPlan            Action = "submit_plan"
	ActionRequestPlanDisclosure Action = "request_plan_disclosure"
)

// Policy authorizes an action on a record for a caller.
type Policy interface {
	Can(ctx context.Context, caller domain.Caller, action Action, record domain.RecordID) bool
}

// RolePolicy is the default role matrix. Guardians and counselors submit and
// read; actions that reveal cleartext or write derived artifacts are
// restricted to counselors and the analysis service respectively.
type RolePolicy struct{}

var roleActions = map[domain.Role]map[Action]bool{
	domain.RoleGuardian: {
		ActionSubmit: true,
		ActionRead:   true,
	},
	domain.RoleCounselor: {
		ActionSubmit:                true,
		ActionRead:                  true,
		ActionRequestDisclosure:     true,
		ActionRequestAnalysis:       true,
		ActionRequestPlanDisclosure: true,
	},
	domain.RoleService: {
		ActionRead:       true,
		ActionSubmitPlan: true,
	},
}

func (RolePolicy) Can(_ context.Context, caller domain.Caller, action Action, _ domain.RecordID) bool {
	if caller.IsNil() {
		return false
	}
	return roleActions[caller.Role][action]
}

// AllowAll authorizes everything. For tests and for deployments that keep
// the historical fully-permissive behavior.
type AllowAll struct{}

func (AllowAll) Can(context.Context, domain.Caller, Action, domain.RecordID) bool { return true }
