package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/admin"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/backend"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/config"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/database"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/operators"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/records"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/relay"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/server"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/site"
	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "advocate-site",
		Short: "Legal practice site and admin console",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newServeCommand(), newOperatorCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the public site, the console and the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func newOperatorCommand() *cobra.Command {
	operatorCmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage console operators in the local database",
	}

	var email, password, displayName string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a console operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return addOperator(cmd.Context(), email, password, displayName)
		},
	}
	addCmd.Flags().StringVar(&email, "email", "", "Operator email")
	addCmd.Flags().StringVar(&password, "password", "", "Operator password")
	addCmd.Flags().StringVar(&displayName, "name", "", "Operator display name")
	_ = addCmd.MarkFlagRequired("email")
	_ = addCmd.MarkFlagRequired("password")

	operatorCmd.AddCommand(addCmd)
	return operatorCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("store-driver", defaults.GetString("store.driver"), "Record store backend (rest, sqlite)")
	cmd.PersistentFlags().String("store-url", defaults.GetString("store.url"), "Hosted store base URL")
	cmd.PersistentFlags().String("store-api-key", "", "Hosted store API key (overrides env)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("session.ttl_minutes"), "Console session TTL in minutes")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("relay-endpoint", defaults.GetString("relay.endpoint"), "Form relay endpoint")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	cmd.PersistentFlags().String("log-file", defaults.GetString("log.file"), "Optional rotated log file")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "store.driver", "store-driver")
	bindFlag(cmd, "store.url", "store-url")
	bindFlag(cmd, "store.api_key", "store-api-key")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
	bindFlag(cmd, "relay.endpoint", "relay-endpoint")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "log.file", "log-file")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func newSessionContext(appConfig config.AppConfig, authenticator store.Authenticator, logger *zap.Logger) (*auth.SessionContext, error) {
	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSigningSecret),
		TokenTTL:      appConfig.SessionTTL,
	})
	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SessionSigningSecret),
		Issuer:        issuer.Issuer(),
		Audience:      issuer.Audience(),
		CookieName:    appConfig.SessionCookieName,
	})
	if err != nil {
		return nil, err
	}
	gate, err := auth.NewGate(auth.GateConfig{
		Authenticator: authenticator,
		Issuer:        issuer,
		Validator:     validator,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return auth.NewSessionContext(gate, validator, auth.CookieConfig{Secure: appConfig.SessionSecureCookie}), nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:  appConfig.LogLevel,
		Format: appConfig.LogFormat,
		File:   appConfig.LogFile,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	dataBackend, err := backend.Open(appConfig, logger)
	if err != nil {
		return err
	}
	defer dataBackend.Close() //nolint:errcheck

	recordsService := records.NewService(records.ServiceConfig{
		Store:      dataBackend.Store,
		Clock:      time.Now,
		Logger:     logger,
		BlogAuthor: appConfig.SiteAuthor,
	})

	sessions, err := newSessionContext(appConfig, dataBackend.Authenticator, logger)
	if err != nil {
		return err
	}

	intake := server.NewIntakeDispatcher()
	siteController := site.NewController(site.ControllerConfig{
		Records: recordsService,
		Relay: relay.New(relay.Config{
			Endpoint: appConfig.RelayEndpoint,
			Timeout:  appConfig.RelayTimeout,
			Logger:   logger,
		}),
		Notifier: intake,
		Logger:   logger,
		Clock:    time.Now,
	})
	consoles := admin.NewRegistry(admin.RegistryConfig{
		Records:     recordsService,
		Logger:      logger,
		Clock:       time.Now,
		IdleTimeout: appConfig.ConsoleIdleTimeout,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Records:        recordsService,
		Site:           siteController,
		Sessions:       sessions,
		Consoles:       consoles,
		Intake:         intake,
		Logger:         logger,
		AllowedOrigins: appConfig.AllowedOrigin,
		SiteName:       appConfig.SiteName,
		SiteAuthor:     appConfig.SiteAuthor,
	})
	if err != nil {
		return err
	}

	// Request contexts derive from baseCtx so open intake streams end on shutdown.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	httpServer.RegisterOnShutdown(cancelRequests)

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("store", dataBackend.Mode),
			zap.Bool("degraded", dataBackend.Degraded()),
			zap.Bool("relay_enabled", appConfig.RelayEndpoint != ""))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func addOperator(ctx context.Context, email, password, displayName string) error {
	logger, err := logging.NewLogger(logging.Options{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	databasePath := strings.TrimSpace(viper.GetString("database.path"))
	if databasePath == "" {
		return fmt.Errorf("database.path is required")
	}
	db, err := database.OpenSQLite(databasePath, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	operatorService, err := operators.NewService(operators.ServiceConfig{Database: db})
	if err != nil {
		return err
	}
	operator, err := operatorService.AddOperator(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	logger.Info("operator added", zap.String("operator_id", operator.ID), zap.String("email", operator.Email))
	return nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
