package identity

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/ngazi/model"
)

type membershipFile struct {
	Users map[string]userEntry `yaml:"users"`
}

type userEntry struct {
	Roles       []string            `yaml:"roles"`
	AdhocGrants map[int64][]string  `yaml:"adhoc_grants"`
}

// StaticMembershipProvider resolves memberships from a static YAML file
// mapping users to role names and per-item adhoc grants. User names are
// matched case-insensitively after trimming.
type StaticMembershipProvider struct {
	path string
	mu   sync.RWMutex
	file membershipFile
}

// NewStaticMembershipProvider creates a provider that loads memberships
// from path.
func NewStaticMembershipProvider(path string) (*StaticMembershipProvider, error) {
	p := &StaticMembershipProvider{path: path}
	if err := p.Sync(); err != nil {
		return nil, err
	}
	return p, nil
}

// RoleNames returns the user's role memberships.
func (p *StaticMembershipProvider) RoleNames(_ context.Context, userName string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.lookup(userName)
	if !ok {
		return nil, nil
	}
	out := make([]string, len(entry.Roles))
	copy(out, entry.Roles)
	return out, nil
}

// AdhocGrants returns the adhoc roles granted to the user for one item.
func (p *StaticMembershipProvider) AdhocGrants(_ context.Context, userName string, contentID int64) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.lookup(userName)
	if !ok || entry.AdhocGrants == nil {
		return nil, nil
	}
	grants := entry.AdhocGrants[contentID]
	out := make([]string, len(grants))
	copy(out, grants)
	return out, nil
}

// lookup finds a user entry by normalized name. Must be called with mu held.
func (p *StaticMembershipProvider) lookup(userName string) (userEntry, bool) {
	key := model.NormalizeRoleName(userName)
	for name, entry := range p.file.Users {
		if model.NormalizeRoleName(name) == key {
			return entry, true
		}
	}
	return userEntry{}, false
}

// Sync reloads the membership file from disk.
func (p *StaticMembershipProvider) Sync() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("identity: reading membership file %s: %w", p.path, err)
	}

	var f membershipFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("identity: parsing membership file %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.file = f
	p.mu.Unlock()

	return nil
}

// UserCount returns the number of users in the loaded membership file.
func (p *StaticMembershipProvider) UserCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.file.Users)
}

// HealthCheck verifies the membership file is still readable.
func (p *StaticMembershipProvider) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("identity: membership file: %w", err)
	}
	return nil
}
