package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// fakeFile — файл с данными в памяти.
type fakeFile struct {
	name     string
	data     []byte
	length   int64 // используется, когда data == nil
	selected atomic.Bool
}

func (f *fakeFile) Name() string { return f.name }
func (f *fakeFile) Path() string { return f.name }

func (f *fakeFile) Length() int64 {
	if f.data != nil {
		return int64(len(f.data))
	}
	return f.length
}

func (f *fakeFile) NewReader(start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start || end >= f.Length() {
		return nil, fmt.Errorf("range %d-%d out of bounds", start, end)
	}
	if f.data == nil {
		return io.NopCloser(bytes.NewReader(make([]byte, end-start+1))), nil
	}
	return io.NopCloser(bytes.NewReader(f.data[start : end+1])), nil
}

func (f *fakeFile) Select() { f.selected.Store(true) }

type fakeDownload struct {
	name   string
	hash   string
	files  []File
	status Status
}

func (d *fakeDownload) Name() string     { return d.name }
func (d *fakeDownload) InfoHash() string { return d.hash }

func (d *fakeDownload) Length() int64 {
	var total int64
	for _, f := range d.files {
		total += f.Length()
	}
	return total
}

func (d *fakeDownload) Files() []File  { return d.files }
func (d *fakeDownload) Status() Status { return d.status }

type fakeEngine struct {
	mu      sync.Mutex
	addFn   func(ctx context.Context, source string) (Download, error)
	removed []Download
	closed  bool
}

func (e *fakeEngine) Add(ctx context.Context, source string) (Download, error) {
	return e.addFn(ctx, source)
}

func (e *fakeEngine) Remove(d Download) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, d)
	return nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) removedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.removed)
}

func (e *fakeEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// okProber — мгновенная проба с фиксированным ответом.
func okProber(info MediaInfo) Prober {
	return func(ctx context.Context, url string) (MediaInfo, error) {
		return info, nil
	}
}

type fakeJob struct {
	output io.ReadCloser
	killed atomic.Bool
}

func (j *fakeJob) Output() io.ReadCloser { return j.output }
func (j *fakeJob) Kill()                 { j.killed.Store(true) }

// fakeTranscoder отдаёт фиксированный вывод и запоминает параметры запуска.
type fakeTranscoder struct {
	mu        sync.Mutex
	output    []byte
	duration  float64 // если > 0, сразу сообщается через onDuration
	startTime float64
	started   int
	lastJob   *fakeJob
}

func (t *fakeTranscoder) Start(input io.ReadCloser, startTime float64, onDuration func(float64)) (TranscodeJob, error) {
	t.mu.Lock()
	t.startTime = startTime
	t.started++
	job := &fakeJob{output: io.NopCloser(bytes.NewReader(t.output))}
	t.lastJob = job
	t.mu.Unlock()

	if t.duration > 0 && onDuration != nil {
		onDuration(t.duration)
	}
	return job, nil
}

func (t *fakeTranscoder) lastStartTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}
