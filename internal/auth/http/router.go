package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/stagedoor/auth/internal/auth/service"
	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/jwtx"
	"github.com/stagedoor/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	AuthnService     *service.AuthnService
	AuthorizeService *service.AuthorizeService
	TokenService     *service.TokenService
	ClientService    *service.ClientService
}

func NewRouter(verifier jwtx.Verifier, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOAuth2()
	r.registerClients()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthnService: r.AuthnService}

	r.Mux.Handle("POST /auth/register", http.HandlerFunc(h.HandleRegister))
	r.Mux.Handle("POST /auth/login", http.HandlerFunc(h.HandleLogin))
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}

	// The authorize endpoints act on behalf of a logged-in user; the
	// token endpoint does not, clients authenticate themselves there.
	r.Mux.Handle("GET /oauth/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleStart),
			httpx.SessionMiddleware(r.verifier),
		),
	)
	r.Mux.Handle("POST /oauth/authorize/decision",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleDecision),
			httpx.SessionMiddleware(r.verifier),
		),
	)

	tokenHandler := &TokenHandler{
		AuthnService: r.AuthnService,
		TokenService: r.TokenService,
	}
	r.Mux.Handle("POST /oauth/token", tokenHandler)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}

	r.Mux.Handle("POST /client",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.SessionMiddleware(r.verifier),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
