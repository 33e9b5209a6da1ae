package identity

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestProvider(t *testing.T) *StaticMembershipProvider {
	t.Helper()
	p, err := NewStaticMembershipProvider("testdata/memberships.yaml")
	if err != nil {
		t.Fatalf("NewStaticMembershipProvider error: %v", err)
	}
	return p
}

func TestStaticMembershipProvider_RoleNames(t *testing.T) {
	p := newTestProvider(t)

	roles, err := p.RoleNames(context.Background(), "alice")
	if err != nil {
		t.Fatalf("RoleNames error: %v", err)
	}
	if !reflect.DeepEqual(roles, []string{"Editor", "Writer"}) {
		t.Errorf("RoleNames = %v, want [Editor Writer]", roles)
	}
}

func TestStaticMembershipProvider_RoleNames_caseInsensitive(t *testing.T) {
	p := newTestProvider(t)

	roles, err := p.RoleNames(context.Background(), "  BOB smith ")
	if err != nil {
		t.Fatalf("RoleNames error: %v", err)
	}
	if !reflect.DeepEqual(roles, []string{"Reviewer"}) {
		t.Errorf("RoleNames = %v, want [Reviewer]", roles)
	}
}

func TestStaticMembershipProvider_unknownUser(t *testing.T) {
	p := newTestProvider(t)

	roles, err := p.RoleNames(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("RoleNames error: %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("RoleNames(unknown) = %v, want none", roles)
	}
}

func TestStaticMembershipProvider_AdhocGrants(t *testing.T) {
	p := newTestProvider(t)

	grants, err := p.AdhocGrants(context.Background(), "Alice", 4242)
	if err != nil {
		t.Fatalf("AdhocGrants error: %v", err)
	}
	if !reflect.DeepEqual(grants, []string{"Approver"}) {
		t.Errorf("AdhocGrants = %v, want [Approver]", grants)
	}

	// Grants are scoped to one content item.
	grants, _ = p.AdhocGrants(context.Background(), "Alice", 9999)
	if len(grants) != 0 {
		t.Errorf("AdhocGrants(other item) = %v, want none", grants)
	}
}

func TestStaticMembershipProvider_missingFile(t *testing.T) {
	_, err := NewStaticMembershipProvider("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStaticMembershipProvider_Sync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memberships.yaml")
	if err := os.WriteFile(path, []byte("users:\n  carol:\n    roles: [Author]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := NewStaticMembershipProvider(path)
	if err != nil {
		t.Fatalf("NewStaticMembershipProvider error: %v", err)
	}
	roles, _ := p.RoleNames(context.Background(), "carol")
	if !reflect.DeepEqual(roles, []string{"Author"}) {
		t.Fatalf("RoleNames = %v, want [Author]", roles)
	}

	if err := os.WriteFile(path, []byte("users:\n  carol:\n    roles: [Author, Editor]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Sync(); err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	roles, _ = p.RoleNames(context.Background(), "carol")
	if !reflect.DeepEqual(roles, []string{"Author", "Editor"}) {
		t.Errorf("RoleNames after Sync = %v, want [Author Editor]", roles)
	}
}

func TestStaticMembershipProvider_malformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("users: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStaticMembershipProvider(path); err == nil {
		t.Fatal("expected parse error")
	}
}
