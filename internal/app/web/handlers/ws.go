package handlers

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/websocket"

	"GoStream/internal/app/stream"
	"GoStream/internal/pkg/filehelpers"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // Локальный клиент, origin не ограничиваем
}

// HandleWebSocket подписывает соединение на шину событий сессии:
// status, videoUrl, videoMetadata и error уходят клиенту как JSON.
func HandleWebSocket(bus *stream.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("WS background task panic: %v\n%s", rec, debug.Stack())
			}
		}()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ws] Upgrade failed: %v", err)
			return
		}
		defer filehelpers.Close(conn, "ws")

		events, cancel := bus.Subscribe()
		defer cancel()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}

				// Ключевая проверка: если ошибка записи — клиент отключился
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("[ws] Client disconnected: %v", err)
					return
				}

			case <-r.Context().Done():
				return
			}
		}
	}
}
