package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockworld/internal/api"
	"github.com/annel0/blockworld/internal/auth"
	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/eventbus"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе BLOCKWORLD_CONFIG)")
	fresh := flag.Bool("fresh", false, "очистить сохранённый мир перед запуском")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	level := logging.ParseLevel(cfg.Logging.Level)
	for _, component := range []string{"world", "storage", "api", "events"} {
		logging.GetComponentLogger(component).SetLevels(level, logging.TRACE)
	}

	if err := run(cfg, *fresh); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func run(cfg *config.Config, fresh bool) error {
	logging.Info("🌍 Запуск blockworld: мир %s (%s)", cfg.World.ID, cfg.World.Dimension)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки телеметрии: %v", err)
		}
	}()

	// === Блоки ===
	blocks := block.DefaultRegistry()
	if cfg.Blocks.DefinitionsPath != "" {
		if err := blocks.LoadDefinitions(cfg.Blocks.DefinitionsPath); err != nil {
			return fmt.Errorf("описания блоков: %w", err)
		}
	}

	// === Хранилище ===
	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище %s: %w", cfg.Storage.Backend, err)
	}
	defer kv.Close()
	ledgerStore, err := storage.NewLedgerCodec(kv, cfg.Storage.CompressLedger, logging.GetStorageLogger())
	if err != nil {
		return err
	}
	defer ledgerStore.Close()
	logging.Info("💾 Хранилище: %s", cfg.Storage.Backend)

	// === Шина событий ===
	bus, err := openEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	busMetrics := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	busMetrics.Start()
	defer busMetrics.Stop()

	if sub, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("events")); err == nil {
		defer sub.Unsubscribe()
	} else {
		logging.Warn("LoggingListener не запущен: %v", err)
	}

	// === Наблюдатель и предметы ===
	player := entity.NewPlayer(1, vec.Vec3Float{})
	entities := entity.NewEntityManager(player, entity.NewInventory())

	// === Мир ===
	w, err := world.New(ctx, world.Options{
		ID:           cfg.World.ID,
		Dimension:    cfg.World.Dimension,
		Params:       world.ParamsFromConfig(cfg.World),
		FreshSession: fresh || cfg.World.FreshSession,
		Blocks:       blocks,
		Observer:     player,
		Pickups:      entities,
		Store:        ledgerStore,
		Events:       eventbus.NewWorldPublisher(bus, "blockworld", cfg.World.ID),
		Metrics:      world.NewMetrics(prometheus.DefaultRegisterer),
		Logger:       logging.GetWorldLogger(),
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return fmt.Errorf("создание мира: %w", err)
	}
	defer w.Close()

	go w.Run(ctx, cfg.World.TickInterval())
	go entities.Run(ctx.Done(), cfg.World.TickInterval(), w)

	// === REST API ===
	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		if tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, "blockworld", 24*time.Hour); err != nil {
			return fmt.Errorf("JWT: %w", err)
		}
		logging.Info("🔐 JWT проверка для изменяющих запросов включена")
	} else {
		logging.Warn("auth.jwt_secret не задан: изменяющие запросы не защищены")
	}

	rest := api.NewRestServer(api.Config{
		Port:      fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		World:     w,
		Entities:  entities,
		Inventory: entities.Inventory(),
		Tokens:    tokens,
	})
	go func() {
		if err := rest.Start(); err != nil {
			logging.Error("❌ %v", err)
			stop()
		}
	}()

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info("📈 Prometheus метрики на %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("❌ Сервер метрик: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	<-ctx.Done()
	logging.Info("📡 Получен сигнал, завершение работы...")

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rest.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
	return nil
}

// openEventBus выбирает JetStream при заданном URL, иначе in-memory шину
func openEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("📨 Шина событий: in-memory")
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JetStream %s: %w", cfg.URL, err)
	}
	logging.Info("📨 Шина событий: JetStream %s (stream=%s)", cfg.URL, cfg.Stream)
	return bus, nil
}
