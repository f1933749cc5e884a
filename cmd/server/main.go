package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"codeDuelWs/internal/config"
	"codeDuelWs/internal/modules/race/application/port"
	"codeDuelWs/internal/modules/race/application/usecase"
	"codeDuelWs/internal/modules/race/domain"
	"codeDuelWs/internal/modules/race/infrastructure"
	transport "codeDuelWs/internal/modules/race/interface"
	"codeDuelWs/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	textPool, err := infrastructure.LoadTextPool(cfg.Texts.File)
	if err != nil {
		slog.Error("text pool load error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("text pool loaded", slog.Int("snippets", textPool.Size()), slog.String("file", cfg.Texts.File))

	var sink port.RaceEventSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := infrastructure.NewKafkaRaceEventSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaSink.Close()
		sink = kafkaSink
		slog.Info("race event sink enabled", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))
	}

	hub := infrastructure.NewHub()
	registry := domain.NewRegistry()

	broadcastUC := usecase.NewBroadcastUseCase(hub)
	raceUC := usecase.NewRaceUseCase(registry, broadcastUC, textPool.Supplier(), sink)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "CodeDuel server is running")
	})
	e.GET("/ws", transport.NewWebsocketHandler(hub, raceUC, cfg.Websocket.SendBuffer))
	e.GET("/api/rooms", transport.NewRoomListHandler(registry))
	e.GET("/api/rooms/:id", transport.NewRoomDetailHandler(registry))

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	e.Close()
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
