package torrent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/anacrolix/torrent/storage"

	"GoStream/internal/app/stream"
)

var _ stream.Engine = (*Client)(nil)

type Client struct {
	tClient *torrent.Client
	baseDir string
}

func NewClient(clientBaseDir string, pieceCompletionDir string) (*Client, error) {
	config := torrent.NewDefaultClientConfig()

	err := os.MkdirAll(clientBaseDir, 0o700)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(pieceCompletionDir, 0o700)
	if err != nil {
		return nil, err
	}

	pieceCompletion, err := storage.NewDefaultPieceCompletionForDir(pieceCompletionDir)
	if err != nil {
		return nil, err
	}

	opts := storage.NewFileClientOpts{
		ClientBaseDir:   clientBaseDir, // файлы торрентов будут храниться здесь
		PieceCompletion: pieceCompletion,
	}
	// Создаем клиент хранения с настроенными путями
	storageClient := storage.NewFileOpts(opts)
	config.DefaultStorage = storageClient

	tClient, err := torrent.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{
		tClient: tClient,
		baseDir: clientBaseDir,
	}, nil
}

// Add добавляет раздачу по magnet-ссылке или пути к .torrent файлу и ждёт
// метаданные. Контекст ограничивает всё ожидание: по таймауту раздача
// сбрасывается, полуживых раздач в клиенте не остаётся.
func (c *Client) Add(ctx context.Context, source string) (stream.Download, error) {
	var t *torrent.Torrent
	var err error

	if strings.HasPrefix(source, "magnet:") {
		t, err = c.tClient.AddMagnet(source)
	} else {
		var mi *metainfo.MetaInfo
		mi, err = metainfo.LoadFromFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to load torrent file: %w", err)
		}
		t, err = c.tClient.AddTorrent(mi)
	}

	if err != nil {
		return nil, err
	}

	if t == nil {
		return nil, fmt.Errorf("failed to add torrent: %s", source)
	}

	// Ждем метаданные (критично для magnet-ссылок)
	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		t.Drop()
		return nil, fmt.Errorf("timed out waiting for torrent metadata: %w", ctx.Err())
	}

	t.DownloadAll()

	return newDownload(t), nil
}

// Remove сбрасывает раздачу из клиента.
func (c *Client) Remove(d stream.Download) error {
	download, ok := d.(*Download)
	if !ok {
		return fmt.Errorf("unexpected download type %T", d)
	}

	log.Printf("[torrent] Removing %s", download.InfoHash())
	download.t.Drop()
	return nil
}

// Close Закрывает торрент-клиент
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Println("[torrent] FORCE shutdown (timeout)")
			os.Exit(1) // Крайний случай
		}
	}()

	log.Println("[torrent] Initiating graceful shutdown...")

	// 1. Останавливаем все торренты
	for _, t := range c.tClient.Torrents() {
		log.Printf("[torrent] Removing %s", t.InfoHash().String())
		t.Drop() // Корректная остановка торрента
	}

	// 2. Закрываем клиент
	if err := c.tClient.Close(); err != nil {
		log.Printf("[torrent] Error during shutdown: %v", err)
	}

	log.Println("[torrent] Shutdown completed")

	return nil
}
