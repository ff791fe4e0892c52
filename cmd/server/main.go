package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nvqhuy/tablebill/config"
	"github.com/nvqhuy/tablebill/internal/billing"
	httpDelivery "github.com/nvqhuy/tablebill/internal/delivery/http"
	"github.com/nvqhuy/tablebill/internal/delivery/kafka/producer"
	"github.com/nvqhuy/tablebill/internal/infra/redis"
	repo "github.com/nvqhuy/tablebill/internal/repository/redis"
	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/internal/service"
	"github.com/nvqhuy/tablebill/pkg/clock"
	pkgKafka "github.com/nvqhuy/tablebill/pkg/kafka"
	pkgLog "github.com/nvqhuy/tablebill/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	ssRepo := repo.NewRedisSessionRepository(redisCli, l)
	schedRepo := repo.NewRedisScheduleRepository(
		redisCli,
		schedule.New(cfg.Billing.DefaultPricePerHour),
		l,
	)

	// Eventing is optional; a venue without Kafka runs with a noop producer.
	prod := producer.NewNoopProducer()
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
	}
	defer prod.Close()

	clk := clock.NewSystemClock()
	tables := make([]*billing.TableManager, 0, len(cfg.Billing.Tables))
	for _, id := range cfg.Billing.Tables {
		tables = append(tables, billing.NewTableManager(
			billing.TableConfig{
				ID:          id,
				Name:        strings.ToUpper(id),
				TickStep:    cfg.Billing.TickInterval,
				GracePeriod: cfg.Billing.GracePeriod,
			},
			clk,
			clock.DefaultTickerFactory,
			schedRepo,
			ssRepo,
			l,
		))
	}

	tableSvc := service.NewTableService(tables, prod, l)

	h := httpDelivery.NewHTTPHandler(tableSvc, ssRepo, l)
	r := chi.NewRouter()
	r.Use(httpDelivery.RequestLogger(l))
	h.Routes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf(ctx, "Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info(ctx, "Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf(shutdownCtx, "HTTP server shutdown: %v", err)
	}

	// Archive any live session so billed time survives the restart.
	if err := tableSvc.Close(shutdownCtx); err != nil {
		l.Errorf(shutdownCtx, "Failed to drain tables: %v", err)
	}

	l.Info(ctx, "Server exited")
}
