package stream

import (
	"context"
	"io"
)

// File — один файл раздачи, данные которого могут ещё докачиваться.
type File interface {
	Name() string
	Length() int64
	Path() string
	// NewReader отдаёт байты [start, end] включительно.
	NewReader(start, end int64) (io.ReadCloser, error)
	// Select подсказывает движку качать куски файла в порядке воспроизведения.
	Select()
}

// Download — активная раздача в движке.
type Download interface {
	Name() string
	InfoHash() string
	Length() int64
	Files() []File
	Status() Status
}

// Engine — swarm-движок, поставляющий раздачи.
type Engine interface {
	Add(ctx context.Context, source string) (Download, error)
	Remove(d Download) error
	Close() error
}

// Status — снимок прогресса раздачи. Не персистится, пересчитывается раз в секунду.
type Status struct {
	Progress      float64 `json:"progress"` // 0..100
	DownloadSpeed float64 `json:"downloadSpeed"`
	UploadSpeed   float64 `json:"uploadSpeed"`
	NumPeers      int     `json:"numPeers"`
	Downloaded    int64   `json:"downloaded"`
	Uploaded      int64   `json:"uploaded"`
	TimeRemaining float64 `json:"timeRemaining"` // секунды, < 0 — неизвестно
	IsReady       bool    `json:"isReady"`
	IsBuffering   bool    `json:"isBuffering"`
}

// MediaInfo — результат пробы потока, усечённый до нужд ядра.
type MediaInfo struct {
	AudioCodec string
	Duration   float64
}

// Prober запускает инспекцию метаданных потока (ffprobe за интерфейсом).
type Prober func(ctx context.Context, url string) (MediaInfo, error)
