package stream

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"GoStream/internal/pkg/filehelpers"
)

// TranscodeJob — запущенный процесс транскодирования.
type TranscodeJob interface {
	Output() io.ReadCloser
	Kill()
}

// Transcoder оборачивает внешний транскодер: видео копируется как есть,
// аудио перекодируется в совместимый стерео-кодек.
// onDuration вызывается, когда процесс сообщит полную длительность входа.
type Transcoder interface {
	Start(input io.ReadCloser, startTime float64, onDuration func(seconds float64)) (TranscodeJob, error)
}

// TranscoderFunc адаптирует функцию под Transcoder.
type TranscoderFunc func(input io.ReadCloser, startTime float64, onDuration func(seconds float64)) (TranscodeJob, error)

func (fn TranscoderFunc) Start(input io.ReadCloser, startTime float64, onDuration func(seconds float64)) (TranscodeJob, error) {
	return fn(input, startTime, onDuration)
}

// serveTranscode пропускает поток через внешний транскодер. Range здесь не
// поддерживается: перемотка — это новый запрос с новым startTime,
// перезапускающий процесс с нужного смещения.
func (s *Server) serveTranscode(w http.ResponseWriter, r *http.Request) {
	startTime, err := strconv.ParseFloat(r.URL.Query().Get("startTime"), 64)
	if err != nil || startTime < 0 {
		startTime = 0
	}

	input, err := s.file.NewReader(0, s.total-1)
	if err != nil {
		log.Printf("[stream] Failed to open file reader: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	job, err := s.transcoder.Start(input, startTime, func(seconds float64) {
		// Вторая, независимая дорога к длительности (проба могла не успеть)
		s.bus.PublishDuration(seconds)
	})
	if err != nil {
		filehelpers.Close(input, "stream")
		log.Printf("[stream] Failed to start transcoder: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer job.Kill()
	defer filehelpers.Close(input, "stream")

	w.Header().Set("Content-Type", "video/x-matroska")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, job.Output()); err != nil {
		// Клиент перемотал или закрыл плеер — штатный случай
		log.Printf("[stream] Transcode stream closed: %v", err)
	}
}
