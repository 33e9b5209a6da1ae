// Package integration provides a reusable test harness for end-to-end
// testing of the ngazi server. It starts a full HTTP server with in-memory
// row sources, a static membership file, and a test JWT issuer.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pitabwire/ngazi/internal/assignment"
	"github.com/pitabwire/ngazi/internal/config"
	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/history"
	"github.com/pitabwire/ngazi/internal/identity"
	"github.com/pitabwire/ngazi/internal/notification"
	"github.com/pitabwire/ngazi/internal/observability"
	"github.com/pitabwire/ngazi/internal/transport"
)

// TestHarness encapsulates a fully wired ngazi instance for end-to-end
// testing. Row sources and the ledger are exposed for seeding.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	RoleRows    *directory.MemRoleSource
	NotifRows   *notification.MemRowSource
	HistoryRows *history.MemRowSource
	Ledger      *notification.MemoryDeliveryLedger
	Memberships *identity.StaticMembershipProvider

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	membershipYAML string
	cacheTTL       time.Duration
	handlerTimeout time.Duration
}

// WithMemberships sets the membership file content (YAML).
func WithMemberships(yaml string) HarnessOption {
	return func(c *harnessConfig) {
		c.membershipYAML = yaml
	}
}

// WithCacheTTL sets the directory cache TTL. The harness default is one
// nanosecond so re-seeded rows are visible on the next request.
func WithCacheTTL(ttl time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.cacheTTL = ttl
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

const defaultMemberships = `users:
  alice:
    roles: [Editor]
    adhoc_grants:
      42: [Approver]
  bob:
    roles: [Reviewer]
  carol:
    roles: []
`

// NewTestHarness creates and starts a full ngazi test instance. The server
// is automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		membershipYAML: defaultMemberships,
		cacheTTL:       time.Nanosecond,
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{
		t:           t,
		RoleRows:    directory.NewMemRoleSource(),
		NotifRows:   notification.NewMemRowSource(),
		HistoryRows: history.NewMemRowSource(),
		Ledger:      notification.NewMemoryDeliveryLedger(),
	}

	// Membership file.
	membershipPath := filepath.Join(t.TempDir(), "memberships.yaml")
	if err := os.WriteFile(membershipPath, []byte(hc.membershipYAML), 0o600); err != nil {
		t.Fatalf("write membership file: %v", err)
	}
	memberships, err := identity.NewStaticMembershipProvider(membershipPath)
	if err != nil {
		t.Fatalf("load memberships: %v", err)
	}
	h.Memberships = memberships

	// Domain components on the in-memory sources.
	dirLoader := directory.NewLoader(h.RoleRows, nil, nil)
	dirCache := directory.NewCachedLoader(dirLoader, hc.cacheTTL, 100, nil)
	resolver := assignment.NewResolver(nil, nil)
	notifRouter := notification.NewRouter(h.NotifRows, nil, nil)
	dispatcher := notification.NewDispatcher(notifRouter, h.Ledger, time.Hour, nil, nil)
	histLoader := history.NewLoader(h.HistoryRows, nil, nil)

	// JWT issuer and config.
	h.issuer = newTokenIssuer(t)
	h.cfg = config.Defaults()
	h.cfg.Server.HandlerTimeout = hc.handlerTimeout
	h.cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	h.cfg.Identity = config.IdentityConfig{
		Issuer:       h.issuer.Issuer(),
		Audience:     h.issuer.Audience(),
		JWKSURL:      h.issuer.JWKSURL(),
		JWKSCacheTTL: 1 * time.Hour,
		Algorithms:   []string{"RS256"},
	}

	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), 1*time.Hour)

	router := transport.NewRouter(transport.Dependencies{
		Config:        h.cfg,
		Authenticate:  transport.JWTAuthenticator(h.cfg.Identity, jwks),
		Directories:   dirCache,
		Assignments:   resolver,
		Notifications: notifRouter,
		Dispatcher:    dispatcher,
		Histories:     histLoader,
		Memberships:   memberships,
		Readiness: observability.ReadinessChecks{
			MembershipLoaded: func() bool { return memberships.UserCount() > 0 },
			RoleSource:       dirLoader,
			HistorySource:    histLoader,
			Membership:       memberships,
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(func() {
		h.server.Close()
	})

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, token, nil)
}

// GETWithHeaders performs an authenticated GET request with additional headers.
func (h *TestHarness) GETWithHeaders(path, token string, headers map[string]string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, token, headers)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, token, nil)
}

func (h *TestHarness) doRequest(method, path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()

	url := h.server.URL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// EditorClaims returns TestClaims for alice, an Editor member.
func EditorClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-alice",
		UserName:  "alice",
		Email:     "alice@acme.example.com",
		Roles:     []string{"Editor"},
	}
}

// ReviewerClaims returns TestClaims for bob, a Reviewer member.
func ReviewerClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-bob",
		UserName:  "bob",
		Email:     "bob@acme.example.com",
		Roles:     []string{"Reviewer"},
	}
}

// OutsiderClaims returns TestClaims for carol, who holds no role memberships.
func OutsiderClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-carol",
		UserName:  "carol",
		Email:     "carol@acme.example.com",
	}
}

// FormatJSON converts a value to indented JSON for test output.
func FormatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
