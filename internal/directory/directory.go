package directory

import (
	"sync"

	"github.com/pitabwire/ngazi/model"
)

// Directory is an immutable snapshot of all role assignment data for one
// workflow state. The three adhoc partitions are mutually exclusive and
// exhaustive over the full role set; the lookup maps are derived once at
// construction. Intended for single-request use: no internal locking guards
// the lookups, only Close is synchronized.
type Directory struct {
	workflowID int64
	stateID    int64

	roles          []model.RoleAssignment
	nonAdhoc       []model.RoleAssignment
	adhocNormal    []model.RoleAssignment
	adhocAnonymous []model.RoleAssignment

	assignmentByID map[int64]model.AssignmentType
	nameByID       map[int64]string
	notifyByID     map[int64]bool

	// Normalized (trimmed, lowercased) name → roleID. On duplicate
	// normalized names the later row in result order wins; the schema does
	// not guarantee uniqueness and this mirrors the stored data as-is.
	idByName            map[string]int64
	idByNonAdhocName    map[string]int64
	idByAdhocNormalName map[string]int64

	closeOnce sync.Once
	release   func()
}

// newDirectory builds a snapshot from rows in result order.
func newDirectory(workflowID, stateID int64, rows []model.RoleAssignment, release func()) *Directory {
	if release == nil {
		release = noRelease
	}
	d := &Directory{
		workflowID:          workflowID,
		stateID:             stateID,
		roles:               rows,
		assignmentByID:      make(map[int64]model.AssignmentType, len(rows)),
		nameByID:            make(map[int64]string, len(rows)),
		notifyByID:          make(map[int64]bool, len(rows)),
		idByName:            make(map[string]int64, len(rows)),
		idByNonAdhocName:    make(map[string]int64),
		idByAdhocNormalName: make(map[string]int64),
		release:             release,
	}

	for _, r := range rows {
		d.assignmentByID[r.RoleID] = r.Assignment
		d.nameByID[r.RoleID] = r.RoleName
		d.notifyByID[r.RoleID] = r.NotifyEnabled

		key := model.NormalizeRoleName(r.RoleName)
		d.idByName[key] = r.RoleID

		switch r.Adhoc {
		case model.AdhocAnonymous:
			d.adhocAnonymous = append(d.adhocAnonymous, r)
		case model.AdhocNormal:
			d.adhocNormal = append(d.adhocNormal, r)
			d.idByAdhocNormalName[key] = r.RoleID
		default:
			d.nonAdhoc = append(d.nonAdhoc, r)
			d.idByNonAdhocName[key] = r.RoleID
		}
	}

	return d
}

// WorkflowID returns the workflow this snapshot was loaded for.
func (d *Directory) WorkflowID() int64 { return d.workflowID }

// StateID returns the state this snapshot was loaded for.
func (d *Directory) StateID() int64 { return d.stateID }

// IsEmpty reports whether the backing query returned zero rows. Callers
// must check this before treating lookups as authoritative: an empty
// directory means the state has no workflow role control at all.
func (d *Directory) IsEmpty() bool { return len(d.roles) == 0 }

// Roles returns the full role assignment set in result order. The returned
// slice is the snapshot's own; callers must not modify it.
func (d *Directory) Roles() []model.RoleAssignment { return d.roles }

// NonAdhocRoles returns the regular (non-adhoc) state roles.
func (d *Directory) NonAdhocRoles() []model.RoleAssignment { return d.nonAdhoc }

// AdhocNormalRoles returns the explicitly granted adhoc roles.
func (d *Directory) AdhocNormalRoles() []model.RoleAssignment { return d.adhocNormal }

// AdhocAnonymousRoles returns the adhoc roles held implicitly by every
// authenticated user.
func (d *Directory) AdhocAnonymousRoles() []model.RoleAssignment { return d.adhocAnonymous }

// AssignmentFor returns the assignment type recorded for a role, or
// AssignmentNone for an unknown roleID.
func (d *Directory) AssignmentFor(roleID int64) model.AssignmentType {
	return d.assignmentByID[roleID]
}

// RoleName returns the stored (untrimmed) name for a role.
func (d *Directory) RoleName(roleID int64) (string, bool) {
	name, ok := d.nameByID[roleID]
	return name, ok
}

// NotifyEnabled reports whether the role has state notifications switched on.
func (d *Directory) NotifyEnabled(roleID int64) bool {
	return d.notifyByID[roleID]
}

// RoleIDByName resolves any role by normalized name.
func (d *Directory) RoleIDByName(name string) (int64, bool) {
	id, ok := d.idByName[model.NormalizeRoleName(name)]
	return id, ok
}

// NonAdhocRoleID resolves a non-adhoc role by normalized name.
func (d *Directory) NonAdhocRoleID(name string) (int64, bool) {
	id, ok := d.idByNonAdhocName[model.NormalizeRoleName(name)]
	return id, ok
}

// AdhocNormalRoleID resolves an adhoc-normal role by normalized name.
func (d *Directory) AdhocNormalRoleID(name string) (int64, bool) {
	id, ok := d.idByAdhocNormalName[model.NormalizeRoleName(name)]
	return id, ok
}

// NotifyEnabledRoles returns the roles with notifications switched on, in
// result order. Used by the transition notification router.
func (d *Directory) NotifyEnabledRoles() []model.RoleAssignment {
	var out []model.RoleAssignment
	for _, r := range d.roles {
		if r.NotifyEnabled {
			out = append(out, r)
		}
	}
	return out
}

// Close releases the underlying acquisition. Safe to call multiple times;
// lookups remain valid afterwards since the snapshot is fully materialized
// in memory.
func (d *Directory) Close() {
	d.closeOnce.Do(d.release)
}
