// Package daemon provides the otto daemon composition root and lifecycle.
//
// DAEMON ARCHITECTURE:
// The daemon owns one instance of every long-lived component and wires them
// together in dependency order:
//
//   - Switch registry: netstate.Registry over a docstore collection (MongoDB
//     topology.switches or embedded sqlite), loaded once at startup
//   - Controller client: ofctl.Client against the ofctl REST endpoint
//   - State reconciler: background drift detection with a logging sink and,
//     with --sync-registry, a sink that writes live state back
//   - Intent processor pool: model-bound workers warmed per --models
//   - Intent history: the single history.Store over MongoDB or sqlite
//   - Intent engine: one model round trip per intent whose flow tool calls
//     run through the controller client
//   - HTTP API: gin server on --api
//
// SHUTDOWN:
// SIGINT or SIGTERM stops components in reverse order: the root context is
// cancelled so an in-flight iteration aborts its fetches, the reconciler is
// awaited so no iteration writes to a closing store, then the API, then the
// stores.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/concave-dev/otto/cmd/ottod/config"
	"github.com/concave-dev/otto/internal/api"
	configDefaults "github.com/concave-dev/otto/internal/config"
	"github.com/concave-dev/otto/internal/docstore"
	"github.com/concave-dev/otto/internal/history"
	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/intents"
	"github.com/concave-dev/otto/internal/intents/ofctlengine"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/models"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/netutil"
	"github.com/concave-dev/otto/internal/ofctl"
	"github.com/concave-dev/otto/internal/reconciler"
	"github.com/concave-dev/otto/internal/version"
)

// closer releases a store at shutdown.
type closer func(ctx context.Context) error

// openRegistryCollection opens the switch collection for the selected store.
func openRegistryCollection(ctx context.Context) (docstore.Collection, closer, error) {
	if config.Global.Store == configDefaults.StoreSQLite {
		path := filepath.Join(config.Global.DataDir, "switches.db")
		db, err := docstore.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		coll, err := docstore.NewSQLiteCollection(db, configDefaults.DefaultSwitchesCollection)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logging.Info("Switch registry using sqlite at %s", path)
		return coll, func(context.Context) error { return db.Close() }, nil
	}

	client, err := docstore.ConnectMongo(ctx, config.Global.MongoURI, configDefaults.DefaultStoreConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	coll := docstore.NewMongoCollection(client, configDefaults.DefaultTopologyDatabase, configDefaults.DefaultSwitchesCollection)
	logging.Info("Switch registry using MongoDB %s", coll.Name())
	return coll, client.Disconnect, nil
}

// openHistoryBackend opens the processed intents backend for the selected store.
func openHistoryBackend(ctx context.Context) (history.Backend, error) {
	if config.Global.Store == configDefaults.StoreSQLite {
		path := filepath.Join(config.Global.DataDir, "history.db")
		db, err := docstore.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		backend, err := history.NewSQLiteBackend(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logging.Info("Intent history using sqlite at %s", path)
		return backend, nil
	}

	client, err := docstore.ConnectMongo(ctx, config.Global.HistoryURI, configDefaults.DefaultStoreConnectTimeout)
	if err != nil {
		return nil, err
	}
	logging.Info("Intent history using MongoDB %s.%s",
		configDefaults.DefaultHistoryDatabase, configDefaults.DefaultHistoryCollection)
	return history.NewMongoBackend(client, configDefaults.DefaultHistoryDatabase, configDefaults.DefaultHistoryCollection), nil
}

// buildModelFactory adapts the model catalog to the pool.
func buildModelFactory() intentpool.ModelFactory {
	factory := models.NewFactory()
	return intentpool.ModelFactoryFunc(func(identity string) (intentpool.Model, error) {
		m, err := factory.Build(identity)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}

// probeController checks the controller once so a wrong --controller is
// visible at startup. The reconciler keeps retrying either way.
func probeController(ctx context.Context, client *ofctl.Client) {
	names, err := client.ListSwitches(ctx)
	if err != nil {
		logging.Warn("Controller at %s is not reachable yet: %v", client.BaseURL(), err)
		if netutil.IsConnectionRefusedError(err) {
			logging.Warn("TIP: check that the controller runs with ofctl_rest enabled")
		}
		return
	}
	logging.Info("Controller at %s reports %d connected switches", client.BaseURL(), len(names))
}

// buildIntentService wires the ofctl engine so declared intents reach the
// controller.
func buildIntentService(pool *intentpool.Pool, controller *ofctl.Client, registry *netstate.Registry,
	store *history.Store) *intents.Service {
	engine := ofctlengine.New(controller, registry)
	return intents.NewService(pool, engine, store, configDefaults.DefaultIntentModel)
}

// buildAPIConfig converts daemon config to API config
func buildAPIConfig(registry *netstate.Registry, store *history.Store, service *intents.Service,
	pool *intentpool.Pool, rec *reconciler.Reconciler) *api.Config {
	apiConfig := api.DefaultConfig()

	apiConfig.BindAddr = config.Global.APIAddr
	apiConfig.BindPort = config.Global.APIPort
	apiConfig.Registry = registry
	apiConfig.History = store
	apiConfig.Intents = service
	apiConfig.Pool = pool
	apiConfig.Reconciler = rec

	return apiConfig
}

// Run starts every component, waits for a shutdown signal and stops them in
// reverse order.
func Run() error {
	logging.Info("Starting otto daemon v%s", version.OttodVersion)
	logging.RedirectStandardLog(logging.NewLevelWriter("WARN", "stdlog"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Global.Store == configDefaults.StoreSQLite {
		if err := os.MkdirAll(config.Global.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", config.Global.DataDir, err)
		}
	}

	// Switch registry
	coll, closeRegistry, err := openRegistryCollection(ctx)
	if err != nil {
		return fmt.Errorf("failed to open switch registry: %w", err)
	}
	registry := netstate.NewRegistry(coll)
	if err := registry.Load(ctx); err != nil {
		_ = closeRegistry(context.Background())
		return fmt.Errorf("failed to load switch registry: %w", err)
	}
	logging.Info("Loaded %d registered switches", registry.Len())

	// Intent history
	backend, err := openHistoryBackend(ctx)
	if err != nil {
		_ = closeRegistry(context.Background())
		return fmt.Errorf("failed to open intent history: %w", err)
	}
	store, err := history.Open(backend)
	if err != nil {
		_ = backend.Close(context.Background())
		_ = closeRegistry(context.Background())
		return err
	}

	// Controller and reconciler
	controller := ofctl.NewClient(config.Global.ControllerURL, configDefaults.DefaultControllerTimeout)
	probeController(ctx, controller)

	sinks := []reconciler.Sink{reconciler.LogSink{}}
	if config.Global.SyncRegistry {
		sinks = append(sinks, reconciler.RegistrySyncSink{Registry: registry})
		logging.Info("Registry sync enabled: live state is written back after each run")
	}
	rec, err := reconciler.New(registry, controller, reconciler.Config{
		Interval:             config.Global.ReconcileInterval,
		MaxConcurrentFetches: configDefaults.DefaultMaxConcurrentFetches,
	}, sinks...)
	if err != nil {
		_ = store.Close(context.Background())
		_ = closeRegistry(context.Background())
		return fmt.Errorf("failed to create reconciler: %w", err)
	}

	// Processor pool
	pool, err := intentpool.New(config.Global.PoolSize, config.Global.Models, buildModelFactory())
	if err != nil {
		_ = store.Close(context.Background())
		_ = closeRegistry(context.Background())
		return fmt.Errorf("failed to create processor pool: %w", err)
	}
	if err := pool.Warm(ctx); err != nil {
		// A missing API key leaves that model cold; declarations for it fail
		// until the key is provided
		logging.Warn("Processor pool warmed partially: %v", err)
	}

	service := buildIntentService(pool, controller, registry, store)

	// HTTP API
	apiServer := api.NewServer(buildAPIConfig(registry, store, service, pool, rec))
	if err := apiServer.Start(); err != nil {
		_ = store.Close(context.Background())
		_ = closeRegistry(context.Background())
		return fmt.Errorf("failed to start API server: %w", err)
	}

	go rec.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logging.Success("otto daemon started successfully")
	logging.Info("  - HTTP API: %s", apiServer.Addr())
	logging.Info("  - Controller: %s (reconcile every %v)", controller.BaseURL(), config.Global.ReconcileInterval)
	logging.Info("  - Processor pool: %d workers over %v", pool.Size(), pool.Models())
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	select {
	case sig := <-sigCh:
		logging.Info("Received signal: %v", sig)
	case <-ctx.Done():
		logging.Info("Context cancelled")
	}

	logging.Info("Initiating graceful shutdown...")

	cancel()
	rec.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down API server: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logging.Error("Error closing intent history: %v", err)
	}
	if err := closeRegistry(shutdownCtx); err != nil {
		logging.Error("Error closing switch registry: %v", err)
	}

	logging.Success("otto daemon shutdown completed")
	return nil
}
