// Точка входа vols-bot — бота справок и уведомлений по ВОЛС.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lineops/vols-bot/internal/api/handlers"
	"github.com/lineops/vols-bot/internal/api/middleware"
	"github.com/lineops/vols-bot/internal/bot"
	"github.com/lineops/vols-bot/internal/config"
	"github.com/lineops/vols-bot/internal/dataset"
	"github.com/lineops/vols-bot/internal/directory"
	"github.com/lineops/vols-bot/internal/keepalive"
	"github.com/lineops/vols-bot/internal/server"
	"github.com/lineops/vols-bot/internal/service"
	"github.com/lineops/vols-bot/internal/session"
	"github.com/lineops/vols-bot/internal/sheets"
	"github.com/lineops/vols-bot/internal/telegram"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("vols-bot запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("directory_schema", cfg.DirectorySchema),
	)

	// --- Инициализация компонентов ---

	// 1. HTTP-клиент табличных источников
	sheetsClient := sheets.New(cfg.FetchTimeout, logger)

	// 2. Каталог доступа
	schema, err := directory.ParseSchema(cfg.DirectorySchema)
	if err != nil {
		logger.Error("Ошибка схемы каталога", slog.String("error", err.Error()))
		os.Exit(1)
	}
	directoryURL := sheets.NormalizeURL(cfg.DirectoryURL)
	dir := directory.New(sheetsClient, directoryURL, schema, logger)

	// 3. Датасеты ВОЛС
	datasets := dataset.New(sheetsClient, cfg.DatasetURLs, cfg.NotifyDatasetURL,
		cfg.CacheSize, cfg.CacheTTL, logger)

	// 4. Хранилище сессий диалогов
	store := session.NewMemoryStore()

	// 5. Клиент Bot API
	tgClient, err := telegram.New(cfg.BotToken, logger)
	if err != nil {
		logger.Error("Ошибка инициализации Bot API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Диалоговая машина
	engine := bot.New(dir, datasets, store, tgClient, cfg.ProviderPhones, logger)

	// --- Фоновые процессы ---

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 7. Приём апдейтов long polling'ом
	go tgClient.Listen(ctx, engine)

	// 8. Keep-alive self-ping (выключен при пустом VB_SELF_URL)
	pinger := keepalive.New(cfg.SelfURL, cfg.KeepaliveInterval, logger)
	go pinger.Start(ctx)

	// 9. topologymetrics — мониторинг зависимостей
	var dephealthSvc *service.DephealthService
	if cfg.DephealthEnabled {
		dephealthSvc, err = service.NewDephealthService(
			"vols-bot",
			cfg.DephealthGroup,
			directoryURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
		} else {
			if startErr := dephealthSvc.Start(ctx); startErr != nil {
				logger.Warn("Ошибка запуска topologymetrics",
					slog.String("error", startErr.Error()),
				)
			} else {
				logger.Info("topologymetrics запущен",
					slog.String("check_interval", cfg.DephealthCheckInterval.String()),
				)
			}
		}
	}

	// --- Служебный HTTP-сервер ---

	// 10. Health handler с проверкой табличного источника
	sheetsChecker := service.NewSheetsReadinessChecker(directoryURL, cfg.FetchTimeout)
	healthHandler := handlers.NewHealthHandler(sheetsChecker)

	// 11. Запуск сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, healthHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	cancel()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("vols-bot остановлен")
}
