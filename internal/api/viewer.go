package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/pkg/logging"
)

type ViewerClaims struct {
	jwt.RegisteredClaims

	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// VerifyViewerToken checks an HS256 viewer token minted by the gateway and
// returns who it names. audience is skipped when empty.
func VerifyViewerToken(tokenString, audience, secret string, now time.Time) (Viewer, error) {
	if tokenString == "" {
		return Viewer{}, errors.New("missing token")
	}
	if secret == "" {
		return Viewer{}, errors.New("missing token secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	claims := &ViewerClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Viewer{}, errors.Wrap(err, "parse viewer token")
	}
	if !tok.Valid {
		return Viewer{}, errors.New("invalid token")
	}

	if audience != "" && !audContains(claims.Audience, audience) {
		return Viewer{}, errors.New("audience mismatch")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Viewer{}, errors.New("missing subject")
	}
	role, err := lifecycle.ParseRole(claims.Role)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{ID: claims.Subject, Name: claims.Name, Role: role}, nil
}

func audContains(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

type ViewerOptions struct {
	Secret   string
	Audience string
	// AllowHeaders enables the X-Viewer-Role / X-Viewer-ID fallback for
	// local work. Never set in prod.
	AllowHeaders bool
	Now          func() time.Time
}

// ViewerAuth resolves the viewer for every request.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// With AllowHeaders, a request without a bearer token may instead send
// X-Viewer-Role (and optionally X-Viewer-ID).
func ViewerAuth(opts ViewerOptions) func(http.Handler) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				v, err := VerifyViewerToken(strings.TrimSpace(authz[7:]), opts.Audience, opts.Secret, now())
				if err != nil {
					logging.FromContext(r.Context()).WithError(err).Info("viewer token refused")
					WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid viewer token")
					return
				}
				serveAs(next, w, r, v)
				return
			}

			if opts.AllowHeaders {
				if raw := strings.TrimSpace(r.Header.Get("X-Viewer-Role")); raw != "" {
					role, err := lifecycle.ParseRole(raw)
					if err != nil {
						WriteError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
						return
					}
					id := strings.TrimSpace(r.Header.Get("X-Viewer-ID"))
					if id == "" {
						id = "dev-" + strings.ToLower(string(role))
					}
					serveAs(next, w, r, Viewer{ID: id, Role: role})
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "missing viewer token")
		})
	}
}

func serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, v Viewer) {
	ctx := WithViewer(r.Context(), v)
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithField("viewer", v.ID))
	next.ServeHTTP(w, r.WithContext(ctx))
}

// RequireRole lets only viewers with one of roles through.
func RequireRole(roles ...lifecycle.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := ViewerFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "missing viewer")
				return
			}
			for _, role := range roles {
				if v.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, http.StatusForbidden, CodeForbidden, "not allowed for this role")
		})
	}
}
