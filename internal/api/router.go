package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/eventpro/server/internal/api/handlers"
	"github.com/eventpro/server/internal/api/middleware"
	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/audit"
	"github.com/eventpro/server/internal/auth"
	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/domain/contacts"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
	"github.com/eventpro/server/internal/domain/users"
	"github.com/eventpro/server/internal/metrics"
	"github.com/eventpro/server/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything NewRouter wires together. The store is owned by the
// caller and is not closed by the router.
type Deps struct {
	Config    config.Config
	Store     storage.Store
	Orphans   handlers.OrphanReporter
	Tokens    *auth.JWTManager
	Logger    zerolog.Logger
	Version   string
	GitCommit string
	BuildDate string
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	store := deps.Store

	usersService := users.NewService(store.Users(), deps.Tokens, logger)
	eventsService := events.NewService(store.Events(), store.Registrations(), logger)
	engine := registrations.NewEngine(store.Events(), store.Registrations(), cfg.Registration.Mode, logger)
	contactsService := contacts.NewService(store.Contacts(), logger)

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, engine, cfg.Environment)
	eventsHandler.Audit = audit.NewLogger(logger)
	userHandler := handlers.NewUserHandler(eventsService, usersService, cfg.Environment)
	contactHandler := handlers.NewContactHandler(contactsService, cfg.Environment)
	health := handlers.NewHealthChecker(store, deps.Orphans, deps.Version, deps.GitCommit)

	rateLimit := middleware.RateLimit(cfg.RateLimit)
	requireUser := middleware.RequireUser(deps.Tokens)

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierPublic)(rateLimit(h))
	}
	login := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(rateLimit(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierAuthenticated)(rateLimit(requireUser(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(handlers.NotFound))
	mux.Handle("/api/health", methodMux(map[string]http.Handler{http.MethodGet: health.Health()}))
	mux.Handle("/api/version", methodMux(map[string]http.Handler{http.MethodGet: VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate)}))
	mux.Handle("/api/openapi.json", methodMux(map[string]http.Handler{http.MethodGet: OpenAPIHandler()}))
	mux.Handle("/metrics", methodMux(map[string]http.Handler{
		http.MethodGet: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}))

	mux.Handle("/api/auth/register", methodMux(map[string]http.Handler{http.MethodPost: login(authHandler.Register)}))
	mux.Handle("/api/auth/login", methodMux(map[string]http.Handler{http.MethodPost: login(authHandler.Login)}))
	mux.Handle("/api/auth/profile", methodMux(map[string]http.Handler{http.MethodGet: authed(authHandler.Profile)}))
	mux.Handle("/api/auth/logout", methodMux(map[string]http.Handler{http.MethodPost: authed(authHandler.Logout)}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: authed(eventsHandler.Create),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    authed(eventsHandler.Update),
		http.MethodDelete: authed(eventsHandler.Delete),
	}))
	mux.Handle("/api/events/{id}/register", methodMux(map[string]http.Handler{http.MethodPost: authed(eventsHandler.Register)}))

	mux.Handle("/api/contact", methodMux(map[string]http.Handler{http.MethodPost: public(contactHandler.Submit)}))
	mux.Handle("/api/user/events", methodMux(map[string]http.Handler{http.MethodGet: authed(userHandler.Events)}))
	mux.Handle("/api/user/profile", methodMux(map[string]http.Handler{http.MethodPut: authed(userHandler.UpdateProfile)}))

	// Outermost first.
	var handler http.Handler = mux
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.Tracing(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.WriteBody(w, http.StatusMethodNotAllowed, problem.Body{Message: "Method not allowed"})
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
