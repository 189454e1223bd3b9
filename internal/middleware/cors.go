package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig lists what cross-origin callers may do. Zero fields get
// read-only defaults suited to the dashboard API.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Logger           *slog.Logger
}

// corsPolicy holds the header values CORS precomputes from a CORSConfig.
type corsPolicy struct {
	origins     []string
	methods     string
	headers     string
	exposed     string
	maxAge      string
	credentials bool
	logger      *slog.Logger
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	orDefault := func(v []string, def ...string) string {
		if len(v) == 0 {
			v = def
		}
		return strings.Join(v, ", ")
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 300
	}
	return corsPolicy{
		origins:     cfg.AllowedOrigins,
		methods:     orDefault(cfg.AllowedMethods, http.MethodGet, http.MethodHead, http.MethodOptions),
		headers:     orDefault(cfg.AllowedHeaders, "Accept", "Content-Type", RequestIDHeader),
		exposed:     orDefault(cfg.ExposedHeaders, RequestIDHeader, "Content-Disposition"),
		maxAge:      strconv.Itoa(maxAge),
		credentials: cfg.AllowCredentials,
		logger:      cfg.Logger,
	}
}

// allows reports whether origin is listed. An empty list allows any
// origin, and "*" in the list does too.
func (p corsPolicy) allows(origin string) bool {
	if len(p.origins) == 0 {
		return true
	}
	for _, o := range p.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (p corsPolicy) setHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	h.Set("Access-Control-Expose-Headers", p.exposed)
	h.Set("Access-Control-Max-Age", p.maxAge)
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// CORS sets the allow headers for permitted origins and answers preflight
// requests itself: 204 when the origin is allowed, 403 otherwise.
func CORS(cfg CORSConfig) func(next http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := policy.allows(origin)
			if allowed && origin != "" {
				policy.setHeaders(w.Header(), origin)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			if policy.logger != nil {
				policy.logger.DebugContext(r.Context(), "CORS preflight",
					slog.String("origin", origin),
					slog.Bool("allowed", allowed))
			}
			if allowed {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
		})
	}
}
