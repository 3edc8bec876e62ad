package authz

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// ResourceLoader fetches the attributes of the resource a request targets
// (owner_id, region, data_classification, ...). A nil loader means the
// route has no per-resource attributes.
type ResourceLoader func(r *http.Request) (map[string]any, error)

// Guard wires the policy engine into HTTP handlers.
type Guard struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require evaluates the given action for the authenticated subject before
// letting the request through. The request context bucket gets the action,
// client IP and wall-clock fields, so action.* and context.* conditions
// see the same shape the engine would synthesize.
func (g Guard) Require(action string, loader ResourceLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := shared.SubjectFromContext(r.Context())
			if sub == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}

			resource := map[string]any{}
			if loader != nil {
				attrs, err := loader(r)
				if err != nil {
					if g.Logger != nil {
						g.Logger.Error("authz load resource", slog.String("action", action), slog.Any("error", err))
					}
					httpx.RespondError(w, err)
					return
				}
				if attrs != nil {
					resource = attrs
				}
			}

			// day_of_week follows time.Weekday numbering: Sunday is 0,
			// so a weekday window is $in [1..5].
			now := time.Now().UTC()
			reqContext := map[string]any{
				"action":      action,
				"ip":          r.RemoteAddr,
				"timestamp":   now,
				"hour":        now.Hour(),
				"day_of_week": int(now.Weekday()),
			}

			if !g.Engine.Evaluate(subjectAttributes(sub), resource, action, reqContext) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission performs only the coarse RBAC check, for routes with
// no meaningful resource attributes (admin surfaces mostly).
func (g Guard) RequirePermission(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := shared.SubjectFromContext(r.Context())
			if sub == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if !g.Engine.HasPermission(parseRoles(sub.Roles), permission) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjectAttributes flattens the subject into the user bucket. The first
// role doubles as the scalar "role" attribute used by single-valued
// conditions such as {"user.role": {"$ne": "admin"}}.
func subjectAttributes(sub *shared.Subject) map[string]any {
	attrs := make(map[string]any, len(sub.Attributes)+4)
	for k, v := range sub.Attributes {
		attrs[k] = v
	}
	attrs["id"] = sub.ID
	attrs["email"] = sub.Email
	attrs["roles"] = sub.Roles
	if len(sub.Roles) > 0 {
		attrs["role"] = sub.Roles[0]
	}
	return attrs
}

func parseRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		if role, ok := ParseRole(s); ok {
			out = append(out, role)
		}
	}
	return out
}
