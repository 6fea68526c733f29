package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/services"
	"github.com/meetup-planner/app/internal/session"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
)

type userKeyType string

const UserKey userKeyType = "user"

// UserLoader fetches the account behind a session.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Session resolves the session cookie into the current user. Requests without
// a valid session pass through anonymously.
func Session(mgr *session.Manager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := mgr.Resolve(r.Context(), r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.GetUser(r.Context(), uid)
			if err != nil {
				if !appErr.IsCode(err, appErr.CodeNotFound) {
					logger.L().Error("load session user failed", zap.Uint("user_id", uid), zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			target := r.URL.Path
			if r.Method != http.MethodGet {
				// A POST cannot be replayed after login; send the user back to
				// the page the form was on.
				target = "/"
				if ref, err := url.Parse(r.Referer()); err == nil && ref.Host == r.Host && ref.Path != "" {
					target = ref.Path
				}
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(ctx context.Context) *models.User {
	if u, ok := ctx.Value(UserKey).(*models.User); ok {
		return u
	}
	return nil
}

// PrincipalFrom returns the principal for the signed-in user.
func PrincipalFrom(ctx context.Context) (services.Principal, bool) {
	u := CurrentUser(ctx)
	if u == nil {
		return services.Principal{}, false
	}
	return services.PrincipalFor(u), true
}
