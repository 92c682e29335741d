package api

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"restaurant-manager/api/handlers"
	"restaurant-manager/core/identity"
	"restaurant-manager/core/netguard"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

const (
	loginLimiterTTL             = 10 * time.Minute
	loginLimiterCleanupInterval = time.Minute
	loginLimiterMaxBuckets      = 10000

	msgLoginRequired   = "Please log in to access this page"
	msgPermissionPage  = "You do not have permission to access this page"
	msgTooManyAttempts = "Too many login attempts. Please try again later."
	msgCSRFInvalid     = "Your form has expired. Please try again."
)

// requestLimiter keeps one token bucket per key and forgets idle keys.
type requestLimiter struct {
	mu              sync.Mutex
	buckets         map[string]*limiterEntry
	limit           rate.Limit
	burst           int
	ttl             time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	maxBuckets      int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiter(perMinute, burst int) *requestLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &requestLimiter{
		buckets:         make(map[string]*limiterEntry),
		limit:           rate.Every(time.Minute / time.Duration(perMinute)),
		burst:           burst,
		ttl:             loginLimiterTTL,
		cleanupInterval: loginLimiterCleanupInterval,
		maxBuckets:      loginLimiterMaxBuckets,
	}
}

func (l *requestLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if l.cleanupInterval > 0 && now.Sub(l.lastCleanup) >= l.cleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}
	e, ok := l.buckets[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *requestLimiter) cleanup(now time.Time) {
	if l.ttl > 0 {
		for key, e := range l.buckets {
			if now.Sub(e.lastSeen) > l.ttl {
				delete(l.buckets, key)
			}
		}
	}
	for l.maxBuckets > 0 && len(l.buckets) > l.maxBuckets {
		oldestKey := ""
		var oldest time.Time
		for key, e := range l.buckets {
			if oldestKey == "" || e.lastSeen.Before(oldest) {
				oldestKey = key
				oldest = e.lastSeen
			}
		}
		if oldestKey == "" {
			break
		}
		delete(l.buckets, oldestKey)
	}
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; script-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "same-origin")
		if s.cfg.TLSEnabled {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		path := r.URL.Path
		next.ServeHTTP(rec, r)
		user := "-"
		if id, ok := rec.identity(); ok && id.Authenticated {
			user = id.DisplayName
		}
		s.logger.Printf("RESP %s %s user=%s status=%d dur=%s bytes=%d", r.Method, path, user, rec.status, time.Since(start), rec.size)
	})
}

// statusRecorder also captures the identity resolved further down the
// chain so the access log can name the user.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
	who    *identity.Identity
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) identity() (*identity.Identity, bool) {
	return r.who, r.who != nil
}

func recorderFrom(w http.ResponseWriter) *statusRecorder {
	for w != nil {
		if rec, ok := w.(*statusRecorder); ok {
			return rec
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return nil
		}
		w = u.Unwrap()
	}
	return nil
}

// urlContextMiddleware strips a /company-<id>/site-<id> prefix and routes
// on the remainder. The extracted context rides on the request context.
func (s *Server) urlContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc := urlctx.Extract(r.URL.Path)
		if uc.Empty() {
			next.ServeHTTP(w, r.WithContext(urlctx.WithContext(r.Context(), uc)))
			return
		}
		r2 := r.Clone(urlctx.WithContext(r.Context(), uc))
		r2.URL.Path = "/" + uc.RemainingPath
		r2.URL.RawPath = ""
		next.ServeHTTP(w, r2)
	})
}

// identityMiddleware resolves the requester from the session once per request.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		var id *identity.Identity
		if sess == nil {
			id = identity.Anonymous()
		} else {
			id = identity.Resolve(sess)
		}
		if rec := recorderFrom(w); rec != nil {
			rec.who = id
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// csrfMiddleware checks the session's form token on every state changing
// request, from the csrf_token field or the X-CSRF-Token header.
func (s *Server) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isStateChanging(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		sess := session.FromContext(r.Context())
		sent := r.Header.Get("X-CSRF-Token")
		if sent == "" {
			sent = r.PostFormValue("csrf_token")
		}
		if sess == nil || sent == "" || !utils.ConstantTimeEquals([]byte(sent), []byte(sess.CSRFToken())) {
			s.logger.Printf("AUTH fail (csrf) %s %s", r.Method, r.URL.Path)
			if handlers.IsAsync(r) || sess == nil {
				handlers.WriteJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": msgCSRFInvalid})
				return
			}
			sess.AddMessage(session.MessageError, msgCSRFInvalid)
			http.Redirect(w, r, handlers.Referer(r, "/"), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a panic into an unknown error and hands it to the
// same translator handler errors go through.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Errorf("PANIC %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				s.translateError(w, r, fmt.Errorf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !identity.FromContext(r.Context()).Authenticated {
			s.deny(w, r, rbac.Decision{Outcome: rbac.DenyUnauthenticated, Target: rbac.LoginPath})
			return
		}
		next(w, r)
	}
}

// requireCapability runs the permission gate with the caller's own upstream
// connection as the site verifier.
func (s *Server) requireCapability(caps ...rbac.Capability) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id := identity.FromContext(r.Context())
			uc := urlctx.FromContext(r.Context())
			var sites rbac.SiteVerifier
			if uc.HasSite && id.Authenticated {
				sites = s.upstream.Bind(handlers.RequestTokens(r)).Sites()
			}
			d := s.gate.Check(r.Context(), id, caps, uc, sites)
			if !d.Allowed() {
				s.deny(w, r, d)
				return
			}
			next(w, r)
		}
	}
}

func (s *Server) deny(w http.ResponseWriter, r *http.Request, d rbac.Decision) {
	text := msgPermissionPage
	if d.Outcome == rbac.DenyUnauthenticated {
		text = msgLoginRequired
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		kind := session.MessageError
		if d.Outcome == rbac.DenyUnauthenticated {
			kind = session.MessageWarning
		}
		sess.AddMessage(kind, text)
	}
	s.logger.Debugf("PERM deny %s %s outcome=%s reason=%s", r.Method, r.URL.Path, d.Outcome, d.Reason)
	http.Redirect(w, r, d.Target, http.StatusFound)
}

// loginRateLimit throttles login attempts per client address and per
// submitted email.
func (s *Server) loginRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := strings.ToLower(s.clientIP(r))
		email := strings.TrimSpace(r.PostFormValue("email"))
		allowed := s.loginLimiter.allow("ip|" + ip)
		if allowed && email != "" {
			allowed = s.loginLimiter.allow("email|" + utils.FingerprintEmail(email))
		}
		if !allowed {
			s.logger.Printf("AUTH rate limited ip=%s", ip)
			if handlers.IsAsync(r) {
				http.Error(w, "too many attempts", http.StatusTooManyRequests)
				return
			}
			if sess := session.FromContext(r.Context()); sess != nil {
				sess.AddMessage(session.MessageError, msgTooManyAttempts)
			}
			http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) clientIP(r *http.Request) string {
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = r.RemoteAddr
	}
	ip = strings.TrimSpace(ip)
	if s == nil || s.cfg == nil || !isTrustedProxy(ip, s.cfg.Security.TrustedProxies) {
		return ip
	}
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if candidate := strings.TrimSpace(part); candidate != "" {
				return candidate
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return ip
}

// isSecureRequest decides the cookie Secure flag. Forwarded headers only
// count when they come from a trusted proxy.
func (s *Server) isSecureRequest(r *http.Request) bool {
	if r.TLS != nil || s.cfg.TLSEnabled {
		return true
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if !isTrustedProxy(ip, s.cfg.Security.TrustedProxies) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func isTrustedProxy(ip string, trusted []string) bool {
	return netguard.ParseProxies(trusted).Contains(ip)
}
