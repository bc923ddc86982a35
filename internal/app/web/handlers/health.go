package handlers

import (
	"log"
	"net/http"

	"GoStream/internal/app/stream"
)

func HealthCheck(engine stream.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. Проверяем критичные зависимости
		if engine == nil {
			log.Println("[health] CRITICAL: Torrent engine not initialized")
			http.Error(w, "Torrent engine not initialized", http.StatusServiceUnavailable)
			return
		}

		// 2. Отправляем ответ с обработкой ошибок
		if _, err := w.Write([]byte("OK")); err != nil {
			// Это НЕ критично для health check
			log.Printf("[health] NON-CRITICAL: Failed to write response: %v", err)
		}
	}
}
