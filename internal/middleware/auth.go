package middleware

import (
	"context"
	"net/http"
	"os"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
	"github.com/shuffleclub/server/internal/httputil"
	"github.com/shuffleclub/server/internal/store"
	users "github.com/shuffleclub/server/internal/user"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

func InitAuth() {
	discordKey := os.Getenv("DISCORD_KEY")
	discordSecret := os.Getenv("DISCORD_SECRET")
	discordCallbackURL := os.Getenv("DISCORD_CALLBACK_URL")

	googleKey := os.Getenv("GOOGLE_KEY")
	googleSecret := os.Getenv("GOOGLE_SECRET")
	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")

	goth.UseProviders(
		discord.New(discordKey, discordSecret, discordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
		google.New(googleKey, googleSecret, googleCallbackURL, "email", "profile"),
	)
}

// LoadAuthenticatedUser resolves the session's user id and puts both the id
// and the user row on the request context.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), "userID")
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), "userID")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)

			user, err := userStore.GetUser(ctx, userID)
			if err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			httputil.Unauthorized(w, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthenticatedUser(r.Context())
		if user == nil {
			httputil.Unauthorized(w, "login required")
			return
		}
		if !user.IsAdmin {
			httputil.Forbidden(w, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
