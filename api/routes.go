package api

import (
	"net/http"

	"restaurant-manager/api/routegroups"
)

// registerRoutes builds the middleware chain and mounts every page. The
// order matters: the session is loaded before the tenant prefix is
// stripped, identity is resolved from the session, and panics below the
// CSRF check are translated like handler errors.
func (s *Server) registerRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.sessions.Middleware)
	s.router.Use(s.urlContextMiddleware)
	s.router.Use(s.identityMiddleware)
	s.router.Use(s.csrfMiddleware)
	s.router.Use(s.recoverMiddleware)

	s.router.Handle("/static/*", http.StripPrefix("/static/", s.staticHandler()))
	s.registerObservabilityRoutes()

	h := s.newRouteHandlers()
	g := routegroups.Guards{
		Handle:            s.handle,
		RequireAuth:       s.requireAuth,
		RequireCapability: s.requireCapability,
	}

	s.router.MethodFunc("GET", "/", g.Public(h.dashboard.Home))
	s.router.MethodFunc("GET", "/auth/login", g.Public(h.auth.LoginPage))
	s.router.MethodFunc("POST", "/auth/login", s.loginRateLimit(g.Public(h.auth.Login)))
	s.router.MethodFunc("GET", "/auth/logout", g.Public(h.auth.Logout))
	s.router.MethodFunc("POST", "/auth/logout", g.Public(h.auth.Logout))
	s.router.MethodFunc("GET", "/auth/forgot-password", g.Public(h.auth.ForgotPasswordPage))
	s.router.MethodFunc("POST", "/auth/forgot-password", g.Public(h.auth.ForgotPassword))

	s.router.MethodFunc("GET", "/dashboard", g.Session(h.dashboard.Dashboard))
	s.router.MethodFunc("GET", "/dashboard/", g.Session(h.dashboard.Dashboard))
	s.router.MethodFunc("GET", "/switch-site/{siteID}", g.Session(h.dashboard.SwitchSite))

	s.router.MethodFunc("GET", "/debug", g.Public(h.debug.Info))
	s.router.MethodFunc("GET", "/debug/", g.Public(h.debug.Info))
	s.router.MethodFunc("GET", "/debug/sites", g.Public(h.debug.Sites))

	routegroups.RegisterCompanies(s.router, g, h.companies)
	routegroups.RegisterSites(s.router, g, h.sites)
	routegroups.RegisterUsers(s.router, g, h.users)
	routegroups.RegisterRoles(s.router, g, h.roles)
	routegroups.RegisterPermissions(s.router, g, h.permissions)
}
