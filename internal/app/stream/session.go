package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoVideoFile = errors.New("no video file found in download")
	ErrNoSession   = errors.New("no active session")
	ErrDestroyed   = errors.New("controller destroyed")
)

const (
	CodeTorrentError = "TORRENT_ERROR"
	CodeNoVideoFile  = "NO_VIDEO_FILE"
)

// Metadata — результат загрузки: что скачиваем и из чего можно выбирать.
type Metadata struct {
	Name      string     `json:"name"`
	InfoHash  string     `json:"infoHash"`
	TotalSize int64      `json:"totalSize"`
	Files     []FileInfo `json:"files"`
}

type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// ControllerConfig — тайминги и политика ядра. Нулевые значения
// заменяются умолчаниями в NewController.
type ControllerConfig struct {
	Prober                Prober
	Transcoder            Transcoder
	LoadTimeout           time.Duration
	PollInterval          time.Duration
	ProbeSoftTimeout      time.Duration
	ProbeHardTimeout      time.Duration
	FallbackTranscodeExts []string
}

// session — единственный активный стриминговый контекст.
// Все три ресурса (раздача, сервер, поллер) живут и умирают вместе.
type session struct {
	download Download
	file     File
	server   *Server
	pollStop chan struct{}
	pollDone chan struct{}
}

// Controller владеет сессией и является единственным писателем её состояния.
// Каждая внешняя операция держит мьютекс на всё время перехода, поэтому
// два перехода не могут перемежаться.
type Controller struct {
	mu        sync.Mutex
	engine    Engine
	bus       *Bus
	cfg       ControllerConfig
	session   *session
	destroyed bool
}

func NewController(engine Engine, bus *Bus, cfg ControllerConfig) *Controller {
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.ProbeSoftTimeout == 0 {
		cfg.ProbeSoftTimeout = 10 * time.Second
	}
	if cfg.ProbeHardTimeout == 0 {
		cfg.ProbeHardTimeout = 60 * time.Second
	}
	if cfg.FallbackTranscodeExts == nil {
		cfg.FallbackTranscodeExts = []string{"mkv", "avi", "wmv", "flv", "mov"}
	}

	return &Controller{
		engine: engine,
		bus:    bus,
		cfg:    cfg,
	}
}

// IsValidMagnet проверяет формат magnet-ссылки.
func IsValidMagnet(source string) bool {
	return strings.HasPrefix(source, "magnet:?") && strings.Contains(source, "xt=urn:btih:")
}

// Load загружает раздачу и запускает стриминг выбранного файла.
// Предыдущая сессия, если была, сначала полностью останавливается.
func (c *Controller) Load(source string) (*Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}

	c.stopLocked()

	// Потолок на всю загрузку: зависшая раздача не оставляет полуживой сессии
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.LoadTimeout)
	defer cancel()

	download, err := c.engine.Add(ctx, source)
	if err != nil {
		err = fmt.Errorf("failed to add download: %w", err)
		c.bus.PublishError(CodeTorrentError, err.Error())
		return nil, err
	}

	log.Printf("[session] Download ready: %s", download.Name())

	file := SelectPlayableFile(download.Files())
	if file == nil {
		if removeErr := c.engine.Remove(download); removeErr != nil {
			log.Printf("[session] Error removing download: %v", removeErr)
		}
		c.bus.PublishError(CodeNoVideoFile, ErrNoVideoFile.Error())
		return nil, ErrNoVideoFile
	}

	if err := c.startSessionLocked(download, file); err != nil {
		if removeErr := c.engine.Remove(download); removeErr != nil {
			log.Printf("[session] Error removing download: %v", removeErr)
		}
		c.bus.PublishError(CodeTorrentError, err.Error())
		return nil, err
	}

	return c.metadataLocked(), nil
}

// SelectFile перезапускает эндпоинт с другим файлом той же раздачи.
// Метаданные заново не запрашиваются.
func (c *Controller) SelectFile(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if c.session == nil {
		return ErrNoSession
	}

	var file File
	for _, f := range c.session.download.Files() {
		if f.Name() == name {
			file = f
			break
		}
	}
	if file == nil {
		return fmt.Errorf("file not found: %s", name)
	}

	if err := c.session.server.Close(); err != nil {
		log.Printf("[session] Error closing streaming server: %v", err)
	}

	server := newServer(file, c.bus, c.newProbe(), c.cfg.Transcoder)
	if err := server.Start(); err != nil {
		return err
	}

	c.session.file = file
	c.session.server = server

	log.Printf("[session] Switched to file: %s", name)
	return nil
}

// Stop останавливает сессию: таймер, сервер, раздача. Идемпотентна.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Destroy — терминальное состояние: останавливает сессию и закрывает движок.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	if c.destroyed {
		return
	}
	c.destroyed = true

	if err := c.engine.Close(); err != nil {
		log.Printf("[session] Error closing engine: %v", err)
	}
}

// Status возвращает снимок прогресса, ok=false — сессии нет.
func (c *Controller) Status() (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Status{}, false
	}
	return c.session.download.Status(), true
}

// StreamURL возвращает адрес активного потока (без transcode-флага).
func (c *Controller) StreamURL() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return "", false
	}
	return c.session.server.URL(), true
}

func (c *Controller) newProbe() *Probe {
	return NewProbe(
		c.cfg.Prober,
		c.cfg.ProbeSoftTimeout,
		c.cfg.ProbeHardTimeout,
		c.cfg.FallbackTranscodeExts,
		c.bus.PublishDuration,
	)
}

func (c *Controller) startSessionLocked(download Download, file File) error {
	server := newServer(file, c.bus, c.newProbe(), c.cfg.Transcoder)
	if err := server.Start(); err != nil {
		return err
	}

	sess := &session{
		download: download,
		file:     file,
		server:   server,
		pollStop: make(chan struct{}),
		pollDone: make(chan struct{}),
	}

	go c.pollStatus(sess)

	c.session = sess
	return nil
}

// pollStatus публикует снимок прогресса раз в PollInterval, пока сессия жива.
func (c *Controller) pollStatus(sess *session) {
	defer close(sess.pollDone)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.bus.PublishStatus(sess.download.Status())
		case <-sess.pollStop:
			return
		}
	}
}

// stopLocked освобождает все ресурсы сессии. Вызывается под мьютексом.
// Ничего не ждёт у ресурсов, которые не создавались.
func (c *Controller) stopLocked() {
	if c.session == nil {
		return
	}
	sess := c.session
	c.session = nil

	close(sess.pollStop)
	<-sess.pollDone

	if err := sess.server.Close(); err != nil {
		log.Printf("[session] Error closing streaming server: %v", err)
	}

	if err := c.engine.Remove(sess.download); err != nil {
		log.Printf("[session] Error removing download: %v", err)
	}

	log.Printf("[session] Session stopped")
}

func (c *Controller) metadataLocked() *Metadata {
	download := c.session.download
	files := download.Files()

	meta := &Metadata{
		Name:      download.Name(),
		InfoHash:  download.InfoHash(),
		TotalSize: download.Length(),
		Files:     make([]FileInfo, 0, len(files)),
	}
	for _, f := range files {
		meta.Files = append(meta.Files, FileInfo{Name: f.Name(), Size: f.Length(), Path: f.Path()})
	}

	return meta
}
