package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/apierr"
	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionLoader resolves the {code} route variable
type SessionLoader interface {
	GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error)
}

// Session loads the session named by the {code} route variable into the
// request context. Codes are matched case-insensitively.
func Session(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := model.SessionCode(strings.ToUpper(mux.Vars(r)["code"]))
			if code == "" {
				apierr.WriteError(w, apierr.NewInvalidRequestError("session code required"))
				return
			}

			session, err := sessions.GetSession(r.Context(), code)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the loaded session from the request context
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// MustGetSession returns the loaded session or panics
func MustGetSession(ctx context.Context) *model.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - session middleware not applied?")
	}
	return session
}
