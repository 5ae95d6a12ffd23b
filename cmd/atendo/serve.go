package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/atendo/atendo"
	"github.com/atendo/atendo/internal/config"
	"github.com/atendo/atendo/internal/flow"
	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/internal/metrics"
	"github.com/atendo/atendo/pkg/adapters/httpapi"
	"github.com/atendo/atendo/pkg/adapters/memory"
	redisAdapter "github.com/atendo/atendo/pkg/adapters/redis"
	"github.com/atendo/atendo/pkg/adapters/sqlite"
	"github.com/atendo/atendo/pkg/middleware"
	"github.com/atendo/atendo/pkg/operator"
	"github.com/atendo/atendo/pkg/ports"
)

// messagesFromConfig applies the operator-tunable strings over the defaults.
func messagesFromConfig(cfg config.Config) flow.Messages {
	msgs := flow.DefaultMessages()
	if cfg.DefaultDepartment != "" {
		msgs.DefaultDepartment = cfg.DefaultDepartment
	}
	return msgs
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the engine with the configured stores and exposes the message webhook, flow management API and event stream over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		if err := runServe(configPath); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	// Flow store.
	var flows ports.FlowStore
	switch cfg.FlowStore.Driver {
	case "sqlite":
		store, err := sqlite.New(cfg.FlowStore.Path)
		if err != nil {
			return fmt.Errorf("failed to open flow store: %w", err)
		}
		defer store.Close()
		flows = store
	default:
		flows = memory.NewFlowStore()
	}

	// Context store and optional cross-replica locking.
	var contexts ports.ContextStore
	var locker ports.DistributedLocker
	if cfg.ContextStore.Driver == "redis" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.ContextStore.Redis.Addr,
			Password: cfg.ContextStore.Redis.Password,
			DB:       cfg.ContextStore.Redis.DB,
		})
		defer client.Close()
		contexts = redisAdapter.NewFromClient(client,
			redisAdapter.WithPrefix(cfg.ContextStore.Redis.Prefix),
			redisAdapter.WithTTL(cfg.ContextStore.Redis.TTL),
		)
		if cfg.ContextStore.Redis.Lock {
			locker = redisAdapter.NewLocker(client, cfg.ContextStore.Redis.Prefix)
		}
	} else {
		contexts = memory.NewContextStore()
	}

	// Masking runs before encryption so ciphertexts never hold unmasked PII.
	var mws []middleware.Middleware
	if cfg.ContextStore.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	}
	if key := cfg.ContextStore.EncryptionKey; key != "" {
		raw, err := base64.StdEncoding.DecodeString(key)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("encryption_key must be base64 of 32 bytes")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: raw}))
	}
	contexts = middleware.Chain(contexts, mws...)

	operators := operator.NewRegistry(
		operator.WithStrategy(operator.Strategy(cfg.AssignStrategy)),
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	engineOpts := []atendo.Option{
		atendo.WithFlowStore(flows),
		atendo.WithContextStore(contexts),
		atendo.WithOperatorAssigner(operators),
		atendo.WithLifecycleHooks(m.Hooks()),
		atendo.WithMessages(messagesFromConfig(cfg)),
		atendo.WithLogger(logger),
	}
	if locker != nil {
		engineOpts = append(engineOpts, atendo.WithDistributedLocker(locker))
	}
	eng := atendo.New(engineOpts...)

	api := httpapi.NewServer(eng.Handler(), eng.Sessions(), flows, operators,
		httpapi.WithLogger(logger),
		httpapi.WithVersion(atendo.Version),
	)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Routes(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", cfg.ListenAddr,
			"flow_store", cfg.FlowStore.Driver,
			"context_store", cfg.ContextStore.Driver,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return err
			}
		}
		logger.Info("server stopped")
		return nil
	}
}
