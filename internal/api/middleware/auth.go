package middleware

import (
	"net/http"
	"strings"

	"notifier/pkg/crypto"
)

// ServiceAuth - middleware для внутренних endpoint'ов (trigger intake,
// canary).
//
// Проверяет заголовок Authorization: Bearer <token> против bcrypt-хеша
// из SERVICE_TOKEN_HASH. Сам токен нигде в конфигурации не хранится.
//
// Правила:
// - Пустой хеш в конфигурации = endpoint закрыт для всех (403).
//   Открытый по умолчанию внутренний endpoint - ошибка деплоя.
// - Отсутствующий или невалидный токен = 401.
// - bcrypt внутри использует constant-time сравнение (timing attacks).
//
// Использование:
//
//	internal := router.PathPrefix("/internal").Subrouter()
//	internal.Use(middleware.ServiceAuth(cfg.Security.ServiceTokenHash))
func ServiceAuth(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				http.Error(w, "service endpoints disabled", http.StatusForbidden)
				return
			}

			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := crypto.VerifyToken(token, tokenHash); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
