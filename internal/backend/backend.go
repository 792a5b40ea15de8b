// Package backend selects the record store and operator authenticator the
// process runs against.
package backend

import (
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/config"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/database"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/operators"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store/rest"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store/sqlstore"
	"go.uber.org/zap"
)

// Modes reported by Backend.Mode.
const (
	ModeSQLite   = "sqlite"
	ModeREST     = "rest"
	ModeDegraded = "degraded"
)

// Backend is the selected store pair. Store and Authenticator are both nil in
// degraded mode.
type Backend struct {
	Mode          string
	Store         store.Store
	Authenticator store.Authenticator
	close         func() error
}

// Degraded reports whether no store is available.
func (b Backend) Degraded() bool {
	return b.Store == nil
}

// Close releases the local database, if any.
func (b Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named by cfg.StoreDriver. A rest driver without
// usable credentials yields a degraded backend rather than an error.
func Open(cfg config.AppConfig, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		return openSQLite(cfg, logger)
	case config.StoreDriverREST, "":
		if !store.IsConfigured(cfg.StoreURL, cfg.StoreAPIKey) {
			logger.Warn("store credentials missing, serving in degraded mode")
			return Backend{Mode: ModeDegraded}, nil
		}
		client, err := rest.New(rest.Config{
			BaseURL: cfg.StoreURL,
			APIKey:  cfg.StoreAPIKey,
			Timeout: cfg.StoreTimeout,
			Logger:  logger,
		})
		if err != nil {
			return Backend{}, err
		}
		return Backend{Mode: ModeREST, Store: client, Authenticator: client}, nil
	default:
		return Backend{}, fmt.Errorf("backend: unsupported store driver %q", cfg.StoreDriver)
	}
}

func openSQLite(cfg config.AppConfig, logger *zap.Logger) (Backend, error) {
	db, err := database.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		return Backend{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Backend{}, err
	}
	localStore, err := sqlstore.New(sqlstore.Config{
		Database:   db,
		Clock:      time.Now,
		IDProvider: sqlstore.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		_ = sqlDB.Close()
		return Backend{}, err
	}
	operatorService, err := operators.NewService(operators.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		_ = sqlDB.Close()
		return Backend{}, err
	}
	return Backend{
		Mode:          ModeSQLite,
		Store:         localStore,
		Authenticator: operatorService,
		close:         sqlDB.Close,
	}, nil
}
