package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	auth "github.com/fahoumeabdelali/cfpnc-auth"
	"github.com/fahoumeabdelali/cfpnc-auth/activitymap"
	"github.com/fahoumeabdelali/cfpnc-auth/config"
	"github.com/fahoumeabdelali/cfpnc-auth/database"
)

func main() {
	if err := run(); err != nil {
		slog.Error("authsvc exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := auth.CreateSchema(ctx, db); err != nil {
		return err
	}

	if grants := cfg.Grants(); len(grants) > 0 {
		if err := auth.SeedRoles(ctx, db, grants); err != nil {
			return err
		}
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	auther := auth.NewAuthenticator(repo, cfg).
		WithActivitySink(auth.ActivitySinkFunc(logActivity))

	if cfg.GetPasswordUpdateScope() == auth.PasswordUpdateAll {
		slog.Warn("PASSWORD_UPDATE_SCOPE=all, password updates overwrite every account")
	}

	app := auth.NewApp(auther, auther.TokenService(), auth.AppOptions{
		LoginRateLimit: cfg.LoginRateLimit,
	})

	errc := make(chan error, 1)
	go func() {
		slog.Info("authsvc listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver)
		errc <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("authsvc shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func logActivity(ctx context.Context, event auth.ActivityEvent) error {
	n := activitymap.Normalize(event)
	slog.InfoContext(ctx, "activity",
		"verb", n.Verb,
		"actor_id", n.ActorID,
		"object_id", n.ObjectID,
		"channel", n.Channel,
		"metadata", n.Metadata,
	)
	return nil
}
