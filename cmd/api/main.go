package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/catalog"
	"github.com/ariefcatur/go-backoffice/internal/config"
	"github.com/ariefcatur/go-backoffice/internal/httpx"
	"github.com/ariefcatur/go-backoffice/internal/inventory"
	"github.com/ariefcatur/go-backoffice/internal/invoices"
	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/ariefcatur/go-backoffice/internal/logger"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/ariefcatur/go-backoffice/internal/orders"
	"github.com/ariefcatur/go-backoffice/internal/postgres"
	"github.com/ariefcatur/go-backoffice/internal/redisx"
	"github.com/ariefcatur/go-backoffice/internal/schemadrift"
	"github.com/ariefcatur/go-backoffice/internal/workflow"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Warn("redis unreachable, status cache disabled until it recovers", "addr", cfg.RedisAddr, "err", err)
	}

	// Kafka producers
	docs := kafkax.NewProducer(cfg.KafkaBrokers, kafkax.TopicDocuments, 1024, log)
	docs.Start(ctx)
	notes := kafkax.NewProducer(cfg.KafkaBrokers, kafkax.TopicNotifications, 256, log)
	notes.Start(ctx)

	acks, err := notify.LoadAckState(ctx, &redisx.AckStore{RDB: rdb, Key: redisx.KeyNotificationAcks})
	if err != nil {
		// Without redis no warning stays dismissed; keep serving.
		log.Warn("load notification acks", "err", err)
		acks, _ = notify.LoadAckState(ctx, &notify.MemoryAckStore{})
	}
	notifier := notify.Multi{
		notify.LogNotifier{Log: log},
		notify.EventNotifier{Producer: notes, Service: cfg.ServiceName},
	}

	guard := schemadrift.New("orders", "tax_rate", &postgres.Schema{DB: db}, notifier, acks)

	mode := workflow.Permissive
	if cfg.StrictStatusTransitions {
		mode = workflow.Guarded
	}

	// Services
	ordersSvc := &orders.Service{
		Store:          &orders.Repo{DB: db},
		Guard:          guard,
		Notifier:       notifier,
		Events:         docs,
		Cache:          &redisx.StatusCache{RDB: rdb, Key: redisx.KeyOrderStatus, TTL: redisx.TTLStatusCache},
		ServiceName:    cfg.ServiceName,
		NumberAttempts: cfg.OrderNumberAttempts,
	}
	invoicesSvc := &invoices.Service{
		Store:       &invoices.Repo{DB: db},
		Notifier:    notifier,
		Events:      docs,
		Cache:       &redisx.StatusCache{RDB: rdb, Key: redisx.KeyInvoiceStatus, TTL: redisx.TTLStatusCache},
		ServiceName: cfg.ServiceName,
	}
	reconciler := &inventory.Reconciler{
		Catalog:     &catalog.Repo{DB: db},
		Notifier:    notifier,
		Events:      docs,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter(
		&httpx.OrdersHandler{
			Service:  ordersSvc,
			Workflow: ordersSvc.StatusWorkflow(orders.NewMachine(mode)),
			Guard:    guard,
		},
		&httpx.InvoicesHandler{
			Service:   invoicesSvc,
			Converter: &invoices.Converter{Orders: ordersSvc},
			Workflow:  invoicesSvc.StatusWorkflow(invoices.NewMachine(mode)),
		},
		&httpx.InventoryHandler{Reconciler: reconciler},
		&httpx.NotificationsHandler{Acks: acks},
	)

	// Probe once at start so a missing column is reported before the first save.
	guard.Available(ctx)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "strict_status", cfg.StrictStatusTransitions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	docs.Close()
	notes.Close()
	cancel()
	docs.WaitClosed()
	notes.WaitClosed()
}
