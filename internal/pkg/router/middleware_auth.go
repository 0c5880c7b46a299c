package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shandysiswandi/emunotify/internal/pkg/jwt"
)

// publicRoutes is keyed by method then matched route path. It is filled while
// endpoints are registered and only read afterwards.
type publicRoutes map[string]map[string]struct{}

func (p publicRoutes) add(method, path string) {
	if p[method] == nil {
		p[method] = map[string]struct{}{}
	}
	p[method][path] = struct{}{}
}

func (p publicRoutes) has(method, path string) bool {
	_, ok := p[method][path]
	return ok
}

func middlewareAuthentication(verifier jwt.JWT, public publicRoutes) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if errors.Is(err, jwt.ErrTokenExpired) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="expired"`)
				writeJSON(w, errorResponse{Message: "Token has expired"}, http.StatusUnauthorized)
				return
			}
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeJSON(w, errorResponse{Message: "Invalid token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

// bearerToken reads the Authorization header. GET requests may pass the token as
// access_token instead, since EventSource and WebSocket clients cannot set headers.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}

	return ""
}
