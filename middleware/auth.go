package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/repositories"
)

type contextKey string

const identityContextKey contextKey = "identity"

// SessionCookieName — имя cookie с сессионным JWT.
const SessionCookieName = "session"

// Identify разрешает идентичность вызывающего и кладёт её в контекст запроса.
// Отсутствующий, просроченный или битый токен даёт анонимную идентичность,
// а не ошибку: публичные маршруты работают без аутентификации, а требования
// к правам проверяют сервисы.
func Identify(tokens *auth.TokenManager, users repositories.UserRepository, classifier *auth.Classifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.Anonymous()

			if token := extractToken(r); token != "" {
				if userID, err := tokens.Parse(token); err == nil {
					if user, userErr := users.GetByID(r.Context(), userID); userErr == nil {
						identity = classifier.Classify(user)
					}
				}
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext возвращает идентичность вызывающего; без middleware —
// анонимную.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if identity, ok := ctx.Value(identityContextKey).(auth.Identity); ok {
		return identity
	}
	return auth.Anonymous()
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
