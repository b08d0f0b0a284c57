package service

import (
	"civicfix/internal/auth"
	"civicfix/internal/errors"
	"civicfix/internal/model"
)

// Operation names a mutating engine call checked against the access matrix.
type Operation string

const (
	OpCreateIssue      Operation = "create_issue"
	OpEditIssue        Operation = "edit_issue"
	OpDeleteIssue      Operation = "delete_issue"
	OpBoostIssue       Operation = "boost_issue"
	OpUpvoteIssue      Operation = "upvote_issue"
	OpAssignStaff      Operation = "assign_staff"
	OpRejectIssue      Operation = "reject_issue"
	OpAdvanceStatus    Operation = "advance_status"
	OpManageCategories Operation = "manage_categories"
	OpManageUsers      Operation = "manage_users"
	OpViewAllPayments  Operation = "view_all_payments"
)

// citizenIssueOps are the issue mutations a blocked citizen loses.
var citizenIssueOps = map[Operation]bool{
	OpCreateIssue: true,
	OpEditIssue:   true,
	OpDeleteIssue: true,
	OpBoostIssue:  true,
	OpUpvoteIssue: true,
}

// AccessMatrix decides whether an identity may perform an operation on a
// target issue. Rules are evaluated in order; the first denial wins.
type AccessMatrix struct {
	// AllowBlockedUpvote exempts upvoting from the blocked-citizen rule.
	AllowBlockedUpvote bool
}

// NewAccessMatrix creates an access matrix.
func NewAccessMatrix(allowBlockedUpvote bool) *AccessMatrix {
	return &AccessMatrix{AllowBlockedUpvote: allowBlockedUpvote}
}

// Authorize returns nil if actor may perform op, ErrForbidden or
// ErrUserBlocked otherwise. For issue-scoped operations the target issue
// must be passed; callers evaluating inside a transaction pass the locked row.
func (m *AccessMatrix) Authorize(actor auth.Identity, op Operation, issue *model.Issue) error {
	// Rule 1: a blocked citizen may perform no mutating issue operation,
	// with the configurable upvote exception.
	if actor.Role == model.RoleCitizen && actor.IsBlocked && citizenIssueOps[op] {
		if !(op == OpUpvoteIssue && m.AllowBlockedUpvote) {
			return errors.ErrUserBlocked
		}
	}

	switch op {
	case OpCreateIssue:
		if actor.Role != model.RoleCitizen {
			return errors.ErrForbidden
		}
		return nil

	// Rule 2: citizens act only on issues they own; edits are pending-only.
	case OpEditIssue:
		if actor.Role != model.RoleCitizen || issue == nil || issue.ReporterEmail != actor.Email {
			return errors.ErrForbidden
		}
		if issue.Status != model.StatusPending {
			return errors.ErrForbidden
		}
		return nil

	case OpDeleteIssue:
		if actor.Role == model.RoleAdmin {
			return nil
		}
		if actor.Role == model.RoleCitizen && issue != nil && issue.ReporterEmail == actor.Email {
			return nil
		}
		return errors.ErrForbidden

	case OpBoostIssue:
		if actor.Role != model.RoleCitizen || issue == nil || issue.ReporterEmail != actor.Email {
			return errors.ErrForbidden
		}
		return nil

	// Rule 3: staff mutate only issues assigned to them.
	case OpAdvanceStatus:
		if actor.Role != model.RoleStaff || issue == nil || issue.AssignedStaffEmail != actor.Email {
			return errors.ErrForbidden
		}
		return nil

	// Rule 4: admin-only operations.
	case OpAssignStaff, OpRejectIssue, OpManageCategories, OpManageUsers, OpViewAllPayments:
		if actor.Role != model.RoleAdmin {
			return errors.ErrForbidden
		}
		return nil

	// Rule 5: any authenticated identity may upvote.
	case OpUpvoteIssue:
		if actor.Email == "" {
			return errors.ErrForbidden
		}
		return nil
	}

	return errors.ErrForbidden
}
