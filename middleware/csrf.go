package middleware

import (
	"net/http"

	authcore "github.com/MrEthical07/authcore"
)

// CSRFHeader is the request header carrying the CSRF token.
const CSRFHeader = "X-CSRF-Token"

// SessionResolver maps an incoming request to the session id its CSRF
// token was issued under, typically from a session cookie.
type SessionResolver func(r *http.Request) (string, bool)

// CSRFProtect enforces the double-check on state-changing requests.
// Safe methods pass through, as do requests authenticated by a valid
// bearer token; a browser cannot be tricked into attaching one
// cross-origin. An Authorization header that fails validation earns no
// exemption and the request falls through to the session check.
func CSRFProtect(engine *authcore.Engine, resolve SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if raw, ok := bearerToken(r.Header.Get("Authorization")); ok && engine != nil {
				if _, err := engine.Validate(requestContext(r), raw); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			if engine == nil || resolve == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			sessionID, ok := resolve(r)
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			err := engine.ValidateCSRFToken(requestContext(r), sessionID, r.Header.Get(CSRFHeader))
			if err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
