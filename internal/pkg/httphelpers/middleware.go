package httphelpers

import (
	"log"
	"net/http"
)

func ErrorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Оборачиваем writer для отслеживания ошибок записи
		rw := &responseWriter{ResponseWriter: w}

		defer func() {
			if err := recover(); err != nil {
				log.Printf("[http] Panic: %v", err)
				if !rw.wroteHeader {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(rw, r)

		// Логируем ошибки записи
		if rw.writeError != nil {
			log.Printf("[http] Write error: %v", rw.writeError)
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
	writeError  error
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.writeError = err
	return n, err
}

// Flush нужен, чтобы chunked-ответы транскодера не буферизовались.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
