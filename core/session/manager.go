package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"restaurant-manager/core/store"
	"restaurant-manager/core/utils"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

const touchInterval = time.Minute

type Options struct {
	CookieName string
	MaxAge     time.Duration
	Secret     string
	Tokens     TokenNames
	// SecureCookie decides the Secure attribute per request; nil means never.
	SecureCookie func(*http.Request) bool
}

type Manager struct {
	store   store.SessionStore
	opts    Options
	signer  *cookieSigner
	logger  *utils.Logger
	metrics *managerMetrics
}

type managerMetrics struct {
	created   prometheus.Counter
	destroyed prometheus.Counter
	errors    *prometheus.CounterVec
}

func NewManager(st store.SessionStore, opts Options, logger *utils.Logger) (*Manager, error) {
	if st == nil {
		return nil, errors.New("session store is nil")
	}
	if opts.Secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 14 * 24 * time.Hour
	}
	signer, err := newCookieSigner(opts.Secret)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:  st,
		opts:   opts,
		signer: signer,
		logger: logger,
		metrics: &managerMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rm_sessions_created_total",
				Help: "Sessions persisted for the first time.",
			}),
			destroyed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rm_sessions_destroyed_total",
				Help: "Sessions deleted on clear or logout.",
			}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rm_session_store_errors_total",
				Help: "Session store failures by operation.",
			}, []string{"op"}),
		},
	}, nil
}

func (m *Manager) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.metrics.created, m.metrics.destroyed, m.metrics.errors}
}

func (m *Manager) Options() Options {
	return m.opts
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// Load resolves the request cookie to a session. A missing, tampered or
// expired cookie yields a fresh empty session.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return newSession(newID(), nil, m.opts.Tokens, true)
	}
	id, ok := m.signer.decode(c.Value)
	if !ok {
		m.logger.Debugf("SESSION %v path=%s", ErrInvalidCookie, r.URL.Path)
		return newSession(newID(), nil, m.opts.Tokens, true)
	}
	rec, err := m.store.GetSession(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			m.metrics.errors.WithLabelValues("load").Inc()
			m.logger.Errorf("SESSION load failed: %v", err)
		}
		return newSession(newID(), nil, m.opts.Tokens, true)
	}
	return newSession(id, rec, m.opts.Tokens, false)
}

// Middleware attaches the session to the request context and commits it just
// before the first byte of the response goes out.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Load(r)
		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() { m.Commit(w, r, sess) }
		next.ServeHTTP(cw, r.WithContext(WithSession(r.Context(), sess)))
		cw.flushCommit()
	})
}

// Commit writes the session back to the store and sets or expires the cookie.
func (m *Manager) Commit(w http.ResponseWriter, r *http.Request, s *Session) {
	s.mu.Lock()
	oldIDs := s.oldIDs
	s.oldIDs = nil
	empty := s.emptyLocked()
	dirty := s.dirty
	isNew := s.isNew
	id := s.id
	now := time.Now().UTC()
	touch := !isNew && now.Sub(s.rec.LastSeenAt) > touchInterval
	var snapshot store.SessionRecord
	if !empty && (dirty || touch) {
		s.rec.LastSeenAt = now
		snapshot = *s.rec
	}
	s.dirty = false
	s.mu.Unlock()

	ctx := context.WithoutCancel(r.Context())
	for _, old := range oldIDs {
		if err := m.store.DeleteSession(ctx, old); err != nil {
			m.metrics.errors.WithLabelValues("delete").Inc()
			m.logger.Errorf("SESSION delete failed: %v", err)
		}
		m.metrics.destroyed.Inc()
	}

	if empty {
		if !isNew {
			if err := m.store.DeleteSession(ctx, id); err != nil {
				m.metrics.errors.WithLabelValues("delete").Inc()
				m.logger.Errorf("SESSION delete failed: %v", err)
			}
			m.metrics.destroyed.Inc()
		}
		if !isNew || len(oldIDs) > 0 {
			m.expireCookie(w, r)
		}
		return
	}
	if !dirty && !touch {
		return
	}
	if err := m.store.SaveSession(ctx, id, &snapshot, m.opts.MaxAge); err != nil {
		m.metrics.errors.WithLabelValues("save").Inc()
		m.logger.Errorf("SESSION save failed: %v", err)
		return
	}
	if isNew {
		m.metrics.created.Inc()
		s.mu.Lock()
		if s.id == id {
			s.isNew = false
		}
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    m.signer.encode(id),
		Path:     "/",
		MaxAge:   int(m.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) secure(r *http.Request) bool {
	if m.opts.SecureCookie == nil {
		return false
	}
	return m.opts.SecureCookie(r)
}

type commitWriter struct {
	http.ResponseWriter
	once   sync.Once
	commit func()
}

func (cw *commitWriter) flushCommit() {
	cw.once.Do(cw.commit)
}

func (cw *commitWriter) WriteHeader(code int) {
	cw.flushCommit()
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.flushCommit()
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) Flush() {
	cw.flushCommit()
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *commitWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
