// Package directory loads and exposes per-state role assignment snapshots.
// A Directory is built once per (workflow, state) query, is read-only
// afterwards, and must be closed by the caller to release the underlying
// acquisition.
package directory

import (
	"context"

	"github.com/pitabwire/ngazi/model"
)

// RoleRowSource yields the role assignment rows for one workflow state.
type RoleRowSource interface {
	// RolesForState returns all role assignment rows for the given
	// (workflowID, stateID) in result order, together with a release
	// function for whatever the source acquired to produce them. Zero rows
	// with a nil error is the NotFound outcome; callers build an empty
	// directory from it. The release function is never nil and is safe to
	// call more than once.
	RolesForState(ctx context.Context, workflowID, stateID int64) ([]model.RoleAssignment, func(), error)
}

// noRelease is the release function for sources that hold nothing open
// after the rows are materialized.
func noRelease() {}
