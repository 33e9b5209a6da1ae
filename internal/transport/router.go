package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/ngazi/internal/assignment"
	"github.com/pitabwire/ngazi/internal/config"
	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/internal/history"
	"github.com/pitabwire/ngazi/internal/identity"
	"github.com/pitabwire/ngazi/internal/notification"
	"github.com/pitabwire/ngazi/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config        *config.Config
	Authenticate  func(http.Handler) http.Handler
	Metrics       *observability.Metrics
	Directories   *directory.CachedLoader
	Assignments   *assignment.Resolver
	Notifications *notification.Router
	Dispatcher    *notification.Dispatcher
	Histories     *history.Loader
	Memberships   identity.MembershipProvider
	Readiness     observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(observability.TracingMiddleware)

	// Public routes — bypass authentication.
	r.Get("/health", observability.HandleHealth())
	r.Get("/ready", observability.HandleReady(deps.Readiness))
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	// Authenticated routes — full middleware chain.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Get("/wf/states/{workflowID}/{stateID}/roles", handleStateRoles(deps.Directories))
		r.Get("/wf/states/{workflowID}/{stateID}/assignment", handleAssignment(deps.Directories, deps.Memberships, deps.Assignments))
		r.Get("/wf/items/{contentID}/checkout", handleCheckout(deps.Histories, deps.Metrics))
		r.Get("/wf/transitions/{workflowID}/{transitionID}/recipients", handleRecipients(deps.Directories, deps.Notifications))
		r.Post("/wf/transitions/{workflowID}/{transitionID}/dispatch", handleDispatch(deps.Directories, deps.Dispatcher))
		r.Get("/wf/items/{contentID}/history", handleHistory(deps.Histories))
	})

	return r
}
