package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

func forbid(w http.ResponseWriter) {
	http.Error(w, "forbidden", http.StatusForbidden)
}

// Require enforces a single permission for the role in context.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				forbid(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when the role holds at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Any(role, perms...) {
				forbid(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr lets the resource owner through and otherwise demands
// the given permission: a student reads their own attempt, a teacher
// with attempt:view-all reads anyone's.
func RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOwner(r) || defaultChecker.Has(RoleFromContext(r.Context()), perm) {
				next.ServeHTTP(w, r)
				return
			}
			forbid(w)
		})
	}
}
