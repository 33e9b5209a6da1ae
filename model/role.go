package model

import "strings"

// AssignmentType is a user's privilege level in a workflow state. The order
// is significant: assignment resolution always picks the most privileged
// type, never a combination.
type AssignmentType int

// Assignment types, in increasing privilege order.
const (
	AssignmentNone AssignmentType = iota
	AssignmentReader
	AssignmentAssignee
	AssignmentAdmin
)

// String returns the canonical lowercase name of the assignment type.
func (a AssignmentType) String() string {
	switch a {
	case AssignmentReader:
		return "reader"
	case AssignmentAssignee:
		return "assignee"
	case AssignmentAdmin:
		return "admin"
	default:
		return "none"
	}
}

// AdhocCategory classifies how a role is granted in a state. A role belongs
// to exactly one category; the category comes from the source data and is
// never inferred.
type AdhocCategory int

const (
	// AdhocDisabled marks a regular state role, granted through workflow
	// role membership.
	AdhocDisabled AdhocCategory = iota
	// AdhocNormal marks a role granted explicitly to named users for one
	// content item.
	AdhocNormal
	// AdhocAnonymous marks a role implicitly held by every authenticated
	// user.
	AdhocAnonymous
)

// String returns the canonical lowercase name of the adhoc category.
func (c AdhocCategory) String() string {
	switch c {
	case AdhocNormal:
		return "normal"
	case AdhocAnonymous:
		return "anonymous"
	default:
		return "disabled"
	}
}

// RoleAssignment is one role's assignment row for a workflow state,
// immutable once loaded into a directory snapshot.
type RoleAssignment struct {
	RoleID        int64          `json:"role_id"`
	RoleName      string         `json:"role_name"`
	Assignment    AssignmentType `json:"assignment_type"`
	Adhoc         AdhocCategory  `json:"adhoc_category"`
	NotifyEnabled bool           `json:"notify_enabled"`
}

// NormalizeRoleName trims and lowercases a role name for case-insensitive
// map keys.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
