// Package identity supplies user role memberships and per-item adhoc role
// grants from an external identity source.
package identity

import "context"

// MembershipProvider answers what roles a user belongs to and which adhoc
// roles were granted to them for a specific content item. Implementations
// wrap whatever directory the deployment uses.
type MembershipProvider interface {
	// RoleNames returns the workflow role names the user is a member of.
	RoleNames(ctx context.Context, userName string) ([]string, error)

	// AdhocGrants returns the adhoc role names explicitly granted to the
	// user for one content item.
	AdhocGrants(ctx context.Context, userName string, contentID int64) ([]string, error)
}
