package api

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"restaurant-manager/api/handlers"
	"restaurant-manager/config"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/utils"
	"restaurant-manager/gui"
)

type Server struct {
	cfg          *config.AppConfig
	router       *chi.Mux
	httpServer   *http.Server
	logger       *utils.Logger
	sessions     *session.Manager
	upstream     *upstream.Client
	gate         *rbac.Gate
	views        *handlers.Renderer
	loginLimiter *requestLimiter
	closeDeps    func()
}

func NewServer(cfg *config.AppConfig, deps *ServerDeps, logger *utils.Logger) (*Server, error) {
	if cfg == nil || deps == nil {
		return nil, errors.New("server: config and deps are required")
	}
	ensureMimeTypes()
	s := &Server{
		cfg:          cfg,
		router:       chi.NewRouter(),
		logger:       logger,
		upstream:     deps.Upstream,
		gate:         rbac.NewGate(deps.Policy, logger),
		loginLimiter: newLimiter(cfg.Security.LoginRatePerMinute, cfg.Security.LoginBurst),
		closeDeps:    deps.Close,
	}
	sessions, err := session.NewManager(deps.Sessions, session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secret:     cfg.Session.Secret,
		Tokens: session.TokenNames{
			Access:  cfg.Session.AccessTokenName,
			Refresh: cfg.Session.RefreshTokenName,
		},
		SecureCookie: s.isSecureRequest,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.sessions = sessions
	views, err := handlers.NewRenderer(gui.Templates)
	if err != nil {
		return nil, err
	}
	s.views = views
	s.registerRoutes()
	return s, nil
}

// Handler exposes the full middleware chain, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Upstream calls may take up to the API timeout.
		WriteTimeout: s.cfg.API.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Printf("HTTP listening on %s (tls=%t)", s.cfg.ListenAddr, s.cfg.TLSEnabled)
	if s.cfg.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	defer func() {
		if s.closeDeps != nil {
			s.closeDeps()
		}
	}()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) env() *handlers.Env {
	return &handlers.Env{
		Cfg:      s.cfg,
		Upstream: s.upstream,
		Gate:     s.gate,
		Views:    s.views,
		Logger:   s.logger,
	}
}

func (s *Server) staticHandler() http.Handler {
	staticFS, err := fs.Sub(gui.StaticFiles, "static")
	if err != nil {
		s.logger.Fatalf("static fs: %v", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := mime.TypeByExtension(filepath.Ext(r.URL.Path)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}

func ensureMimeTypes() {
	_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
	_ = mime.AddExtensionType(".js", "application/javascript; charset=utf-8")
	_ = mime.AddExtensionType(".json", "application/json; charset=utf-8")
	_ = mime.AddExtensionType(".html", "text/html; charset=utf-8")
	_ = mime.AddExtensionType(".svg", "image/svg+xml")
}
