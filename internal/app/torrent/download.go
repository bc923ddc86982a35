package torrent

import (
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/anacrolix/torrent"

	"GoStream/internal/app/stream"
)

var (
	_ stream.Download = (*Download)(nil)
	_ stream.File     = (*File)(nil)
)

// Download адаптирует *torrent.Torrent под контракт ядра.
// Движок отдаёт счётчики байтов, а не скорости, поэтому скорость
// выводится по дельте между последовательными снимками статуса.
type Download struct {
	t *torrent.Torrent

	mu         sync.Mutex
	lastSample time.Time
	lastDown   int64
	lastUp     int64
	downRate   float64
	upRate     float64
}

func newDownload(t *torrent.Torrent) *Download {
	return &Download{t: t, lastSample: time.Now()}
}

func (d *Download) Name() string {
	return d.t.Name()
}

func (d *Download) InfoHash() string {
	return d.t.InfoHash().String()
}

func (d *Download) Length() int64 {
	return d.t.Length()
}

func (d *Download) Files() []stream.File {
	files := d.t.Files()
	out := make([]stream.File, 0, len(files))
	for _, f := range files {
		out = append(out, &File{f: f})
	}
	return out
}

// Status собирает снимок прогресса раздачи.
func (d *Download) Status() stream.Status {
	stats := d.t.Stats()
	downloaded := d.t.BytesCompleted()
	uploaded := stats.BytesWrittenData.Int64()
	total := d.t.Length()

	d.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(d.lastSample).Seconds()
	if elapsed > 0.1 {
		d.downRate = float64(downloaded-d.lastDown) / elapsed
		d.upRate = float64(uploaded-d.lastUp) / elapsed
		d.lastSample = now
		d.lastDown = downloaded
		d.lastUp = uploaded
	}
	downRate, upRate := d.downRate, d.upRate
	d.mu.Unlock()

	progress := getPercent(downloaded, total)

	timeRemaining := -1.0 // неизвестно, пока нет скорости
	if downRate > 0 {
		timeRemaining = float64(total-downloaded) / downRate
	}

	return stream.Status{
		Progress:      float64(progress),
		DownloadSpeed: downRate,
		UploadSpeed:   upRate,
		NumPeers:      stats.ActivePeers,
		Downloaded:    downloaded,
		Uploaded:      uploaded,
		TimeRemaining: timeRemaining,
		IsReady:       d.t.Info() != nil,
		IsBuffering:   progress < 5,
	}
}

func getPercent(n, total int64) float32 {
	if total == 0 {
		return float32(0)
	}
	return float32(int(float64(10000)*(float64(n)/float64(total)))) / 100
}

// File адаптирует *torrent.File под контракт ядра.
type File struct {
	f *torrent.File
}

func (f *File) Name() string {
	return path.Base(f.f.DisplayPath())
}

func (f *File) Length() int64 {
	return f.f.Length()
}

func (f *File) Path() string {
	return f.f.DisplayPath()
}

// NewReader отдаёт байты [start, end] включительно. Чтение блокируется,
// пока нужные куски не докачаются.
func (f *File) NewReader(start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start || end >= f.f.Length() {
		return nil, fmt.Errorf("range %d-%d out of bounds for %s", start, end, f.Name())
	}

	r := f.f.NewReader()
	// Реагируем на позицию чтения, а не тянем readahead впустую
	r.SetResponsive()

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to seek to %d: %w", start, err)
	}

	return &limitedReadCloser{Reader: io.LimitReader(r, end-start+1), closer: r}, nil
}

// Select включает приоритетную закачку файла и форсирует первые куски,
// чтобы воспроизведение началось без долгой буферизации.
func (f *File) Select() {
	f.f.SetPriority(torrent.PiecePriorityNow)

	t := f.f.Torrent()
	begin := f.f.BeginPieceIndex()
	end := f.f.EndPieceIndex()

	const headPieces = 10
	for i := begin; i < end && i < begin+headPieces; i++ {
		t.Piece(i).SetPriority(torrent.PiecePriorityNow)
	}
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error {
	return l.closer.Close()
}
