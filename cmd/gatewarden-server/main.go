package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/config"
	"github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store/sqlite"
	"github.com/gatewarden/server/internal/httpapi"
)

var cli config.Config

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("gatewarden-server"),
		kong.Description("Credential issuance, validation and audit server for gated communities."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cli.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cli.DBPath, Env: cli.Env})
	if err != nil {
		return err
	}
	defer conn.Close()

	if cli.Env == "dev" {
		if err := db.SeedDev(ctx, conn); err != nil {
			return err
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	credentialStore := sqlite.NewCredentialStore(conn, writer)
	subjectStore := sqlite.NewSubjectStore(conn, writer)
	accessLogStore := sqlite.NewAccessLogStore(conn, writer)

	// Services
	issuer := service.NewIssuer(credentialStore, subjectStore,
		service.IssuerConfig{MinValiditySpan: cli.MinValiditySpan}, logger)
	recorder := service.NewAuditRecorder(accessLogStore, logger)
	guards := service.NewGuardDirectory(subjectStore)
	validator := service.NewValidator(credentialStore, subjectStore, recorder, guards, logger)
	credentialSvc := service.NewCredentialService(credentialStore, logger)
	guestSvc := service.NewGuestService(subjectStore, subjectStore, logger)

	debouncer := service.NewScanDebouncer(service.DebounceConfig{
		Window:        cli.DebounceWindow,
		SweepInterval: cli.DebounceSweepInterval,
	}, logger)
	debouncer.Start(ctx)
	defer debouncer.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:      logger,
		Addr:        cli.HTTPAddr,
		Issuer:      issuer,
		Validator:   validator,
		Debouncer:   debouncer,
		Credentials: credentialSvc,
		Guests:      guestSvc,
		AccessLogs:  accessLogStore,
	})

	go func() {
		logger.Info().Str("addr", cli.HTTPAddr).Str("env", cli.Env).Msg("listening")
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
