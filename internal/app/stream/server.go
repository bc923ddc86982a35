package stream

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"GoStream/internal/pkg/filehelpers"
	"GoStream/internal/pkg/httphelpers"
)

// Server — одноразовый HTTP-эндпоинт сессии: один файл, один путь,
// эфемерный порт на loopback.
type Server struct {
	file       File
	total      int64
	bus        *Bus
	probe      *Probe
	transcoder Transcoder

	srv  *http.Server
	ln   net.Listener
	port int

	// Решение принимается пробой один раз за сессию и дальше не меняется
	needsTranscode bool
}

func newServer(file File, bus *Bus, probe *Probe, transcoder Transcoder) *Server {
	return &Server{
		file:       file,
		total:      file.Length(),
		bus:        bus,
		probe:      probe,
		transcoder: transcoder,
	}
}

// Start привязывает сервер к эфемерному порту и асинхронно запускает пробу.
// URL публикуется наблюдателям только после того, как проба решила,
// нужен ли transcode-флаг.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to bind streaming server: %w", err)
	}
	s.ln = ln
	s.port = ln.Addr().(*net.TCPAddr).Port

	router := chi.NewRouter()
	router.Use(httphelpers.ErrorHandler)
	router.Get("/*", s.handleStream)

	s.srv = &http.Server{Handler: router}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[stream] Server error: %v", err)
		}
	}()

	go s.announce()

	return nil
}

// URL возвращает адрес потока без query-параметров.
func (s *Server) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/%s", s.port, url.PathEscape(s.file.Name()))
}

func (s *Server) announce() {
	streamURL := s.URL()
	log.Printf("[stream] Streaming server started at %s", streamURL)

	// Куски файла нужны в порядке воспроизведения
	s.file.Select()

	result := s.probe.Run(streamURL)
	s.needsTranscode = result.NeedsTranscode

	if result.Duration > 0 {
		s.bus.PublishDuration(result.Duration)
	}

	if result.NeedsTranscode {
		log.Printf("[stream] Transcoding enabled for %s", s.file.Name())
		streamURL += "?transcode=true"
	}

	// Ровно одна публикация URL за время жизни сервера
	s.bus.PublishVideoURL(streamURL)
}

// Close останавливает сервер, обрывая активные соединения:
// порт должен освободиться до старта следующей сессии.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/"+s.file.Name() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("transcode") == "true" {
		s.serveTranscode(w, r)
		return
	}

	s.serveRaw(w, r)
}

// serveRaw отдаёт сырые байты из раздачи с поддержкой Range.
func (s *Server) serveRaw(w http.ResponseWriter, r *http.Request) {
	contentType := filehelpers.VideoContentType(s.file.Name())

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		reader, err := s.file.NewReader(0, s.total-1)
		if err != nil {
			log.Printf("[stream] Failed to open file reader: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer filehelpers.Close(reader, "stream")

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(s.total, 10))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, reader); err != nil {
			// Ошибка одного запроса (обычно отключение клиента) не трогает сессию
			log.Printf("[stream] Serving interrupted: %v", err)
		}
		return
	}

	start, end, err := httphelpers.ParseRange(rangeHeader, s.total)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", s.total))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	reader, err := s.file.NewReader(start, end)
	if err != nil {
		log.Printf("[stream] Failed to open range reader: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer filehelpers.Close(reader, "stream")

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, s.total))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("[stream] Serving interrupted: %v", err)
	}
}
