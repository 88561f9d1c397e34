package middleware

import (
	"net/http"
	"runtime/debug"

	"notifier/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers.
//
// Перехватывает panic, логирует stack trace и возвращает клиенту 500,
// не роняя сервер. Текст паники клиенту не отдается.
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						utils.String("path", r.URL.Path),
						utils.Any("panic", err),
						utils.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
