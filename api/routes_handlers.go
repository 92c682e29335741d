package api

import "restaurant-manager/api/handlers"

type routeHandlers struct {
	auth        *handlers.AuthHandler
	dashboard   *handlers.DashboardHandler
	debug       *handlers.DebugHandler
	companies   *handlers.CompaniesHandler
	sites       *handlers.SitesHandler
	users       *handlers.UsersHandler
	roles       *handlers.RolesHandler
	permissions *handlers.PermissionsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	env := s.env()
	return routeHandlers{
		auth:        handlers.NewAuthHandler(env),
		dashboard:   handlers.NewDashboardHandler(env),
		debug:       handlers.NewDebugHandler(env),
		companies:   handlers.NewCompaniesHandler(env),
		sites:       handlers.NewSitesHandler(env),
		users:       handlers.NewUsersHandler(env),
		roles:       handlers.NewRolesHandler(env),
		permissions: handlers.NewPermissionsHandler(env),
	}
}
