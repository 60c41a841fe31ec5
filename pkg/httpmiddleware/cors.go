package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin request handling. The storefront runs
// with credentialed requests (session cookies), so origins are echoed back
// specifically rather than wildcarded whenever credentials are enabled.
type CORSConfig struct {
	// AllowOrigins lists permitted origins. Empty, or a single "*", permits
	// every origin.
	AllowOrigins []string

	// AllowMethods for actual requests; defaults to the usual REST verbs.
	AllowMethods []string

	// AllowHeaders permitted in requests. When empty, preflight requests get
	// their Access-Control-Request-Headers echoed back.
	AllowHeaders []string

	// ExposeHeaders the browser may read from responses.
	ExposeHeaders []string

	// AllowCredentials permits cookies on cross-origin requests. Incompatible
	// with the wildcard origin; specific origins are echoed instead.
	AllowCredentials bool

	// MaxAge caches preflight results for this many seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

type cors struct {
	allowAll      bool
	echoAny       bool // wildcard + credentials: echo the request origin
	origins       map[string]string // lowercase -> configured case
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

func newCORS(cfg CORSConfig) *cors {
	c := &cors{
		allowAll:      len(cfg.AllowOrigins) == 0,
		origins:       make(map[string]string, len(cfg.AllowOrigins)),
		methods:       strings.Join(cfg.AllowMethods, ", "),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.allowAll = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	// Browsers reject credentialed responses with a wildcard origin, so an
	// any-origin credentialed config echoes the request origin instead.
	if c.credentials && c.allowAll {
		c.allowAll = false
		c.echoAny = true
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	} else if cfg.MaxAge < 0 {
		c.maxAge = "0"
	}
	return c
}

// allowOrigin returns the Access-Control-Allow-Origin value for the given
// request origin, or "" when the origin is not permitted. Matching is
// case-insensitive; the configured casing is echoed back.
func (c *cors) allowOrigin(origin string) string {
	if c.allowAll {
		return "*"
	}
	if c.echoAny {
		return origin
	}
	if orig, ok := c.origins[strings.ToLower(origin)]; ok {
		return orig
	}
	return ""
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, allowOrigin string) {
	// Vary on the preflight inputs so shared caches never serve one origin's
	// preflight to another.
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	if allowOrigin == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", c.methods)

	if c.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", c.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}
	if c.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", c.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}

// CORS handles cross-origin resource sharing: preflight answers for OPTIONS
// requests carrying Access-Control-Request-Method, allow/expose headers on
// actual requests, and Vary bookkeeping for caches.
func CORS(cfg CORSConfig) Middleware {
	c := newCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin request; still vary on Origin so caches keep CORS
			// and non-CORS responses apart.
			if origin == "" {
				if !c.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := c.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, allowOrigin)
				return
			}

			if !c.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				if c.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if c.exposeHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", c.exposeHeaders)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
