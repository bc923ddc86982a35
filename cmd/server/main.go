package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"GoStream/configs"
	"GoStream/internal/app/media"
	"GoStream/internal/app/stream"
	"GoStream/internal/app/torrent"
	"GoStream/internal/app/web/handlers"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Main panic recovered: %v\n%s", r, debug.Stack())
		}
	}()

	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Config loaded:\n")
	log.Printf("  Port: %s\n", cfg.Port)
	log.Printf("  TorrentsDir: %s\n", cfg.TorrentsDir)
	log.Printf("  PieceCompletionDir: %s\n", cfg.PieceCompletionDir)

	// Ожидаем сигнал для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Инициализируем торрент-клиент
	torrentClient, err := torrent.NewClient(cfg.TorrentsDir, cfg.PieceCompletionDir)
	if err != nil {
		log.Fatal("Failed to init torrent client:", err)
	}

	bus := stream.NewBus()

	// Проба потока — ffprobe за узким интерфейсом ядра
	prober := stream.Prober(func(ctx context.Context, url string) (stream.MediaInfo, error) {
		info, err := media.ProbeURL(ctx, url)
		if err != nil {
			return stream.MediaInfo{}, err
		}
		return stream.MediaInfo{
			AudioCodec: info.FirstAudioCodec(),
			Duration:   info.DurationSeconds(),
		}, nil
	})

	// Транскодер — ffmpeg за узким интерфейсом ядра
	ffmpeg := media.NewFFmpeg()
	transcoder := stream.TranscoderFunc(func(input io.ReadCloser, startTime float64, onDuration func(float64)) (stream.TranscodeJob, error) {
		return ffmpeg.Start(input, startTime, onDuration)
	})

	controller := stream.NewController(torrentClient, bus, stream.ControllerConfig{
		Prober:                prober,
		Transcoder:            transcoder,
		FallbackTranscodeExts: cfg.FallbackTranscodeExts,
	})

	router := chi.NewRouter()
	// global middleware:
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))
		api.Route("/session", func(r chi.Router) {
			r.Post("/", handlers.LoadSessionHandler(controller))
			r.Delete("/", handlers.StopSessionHandler(controller))
			r.Post("/file", handlers.SelectFileHandler(controller))
			r.Get("/status", handlers.SessionStatusHandler(controller))
		})
		api.Get("/health", handlers.HealthCheck(torrentClient))
	})
	router.Get("/ws", handlers.HandleWebSocket(bus))

	// Создаем HTTP-сервер
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Server run context
	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Shutdown goroutine panic: %v\n%s", r, debug.Stack())
			}
		}()

		<-sigChan
		log.Println("Shutting down...")

		// Shutdown signal with grace period of 30 seconds
		shutdownCtx, shutdownCancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer shutdownCancel()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		// Завершаем работу HTTP-сервера
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown: %v", err)
		}

		// Останавливаем сессию и закрываем торрент-клиент
		controller.Destroy()

		serverStopCtx()
	}()

	log.Printf("Server started at :%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("ListenAndServe(): %v", err)
	}

	// Wait for server context to be stopped
	<-serverCtx.Done()
}
