package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"GoStream/internal/app/stream"
)

type loadRequest struct {
	Source string `json:"source"`
}

type selectFileRequest struct {
	Name string `json:"name"`
}

// LoadSessionHandler обрабатывает POST /api/session
func LoadSessionHandler(ctrl *stream.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Println(err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if req.Source == "" {
			http.Error(w, "Missing source", http.StatusBadRequest)
			return
		}

		// Magnet-ссылки проверяем до похода в движок
		if strings.HasPrefix(req.Source, "magnet:") && !stream.IsValidMagnet(req.Source) {
			http.Error(w, "Invalid magnet link", http.StatusBadRequest)
			return
		}

		meta, err := ctrl.Load(req.Source)
		if err != nil {
			log.Printf("[api] Load error: %v", err)
			switch {
			case errors.Is(err, stream.ErrNoVideoFile):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, stream.ErrDestroyed):
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			default:
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")

		// Обрабатываем ошибку Encode
		if err := json.NewEncoder(w).Encode(meta); err != nil {
			log.Printf("[api] Client disconnected before response: %v", err)
		}
	}
}

// SelectFileHandler обрабатывает POST /api/session/file
func SelectFileHandler(ctrl *stream.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Println(err)
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if req.Name == "" {
			http.Error(w, "Missing file name", http.StatusBadRequest)
			return
		}

		if err := ctrl.SelectFile(req.Name); err != nil {
			log.Printf("[api] Select file error: %v", err)
			if errors.Is(err, stream.ErrNoSession) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// StopSessionHandler обрабатывает DELETE /api/session. Остановка идемпотентна.
func StopSessionHandler(ctrl *stream.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.Stop()
		w.WriteHeader(http.StatusOK)
	}
}

// SessionStatusHandler обрабатывает GET /api/session/status
func SessionStatusHandler(ctrl *stream.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, ok := ctrl.Status()
		if !ok {
			http.Error(w, "No active session", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("[api] Client disconnected before response: %v", err)
		}
	}
}
