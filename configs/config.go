package configs

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	TorrentsDir        string
	PieceCompletionDir string
	// Контейнеры, для которых при таймауте пробы сразу включается транскодирование.
	FallbackTranscodeExts []string
}

func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	// По умолчанию ищет .env в текущей директории
	err := godotenv.Load()
	if err != nil {
		// Это нормально, если .env файл не найден в продакшене,
		// так как переменные могут быть установлены напрямую в окружении.
		log.Println("No .env file found, falling back to environment variables or defaults.")
	}

	cfg := &Config{
		Port:               os.Getenv("PORT"),
		TorrentsDir:        os.Getenv("TORRENTS_DIR"),
		PieceCompletionDir: os.Getenv("PIECE_COMPLETION_DIR"),
	}

	// Установка значений по умолчанию, если переменные не заданы
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if cfg.TorrentsDir == "" {
		cfg.TorrentsDir = "/app/data/torrents"
	}
	if cfg.PieceCompletionDir == "" {
		cfg.PieceCompletionDir = "/app/data/torrent_data"
	}

	// Эвристика для таймаута пробы — настраиваемая политика, не жёсткое правило
	if raw := os.Getenv("FALLBACK_TRANSCODE_EXTS"); raw != "" {
		for _, ext := range strings.Split(raw, ",") {
			ext = strings.TrimSpace(strings.TrimPrefix(ext, "."))
			if ext != "" {
				cfg.FallbackTranscodeExts = append(cfg.FallbackTranscodeExts, strings.ToLower(ext))
			}
		}
	} else {
		cfg.FallbackTranscodeExts = []string{"mkv", "avi", "wmv", "flv", "mov"}
	}

	return cfg, nil
}
