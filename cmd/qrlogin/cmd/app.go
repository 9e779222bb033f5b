package cmd

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dvd/backend/internal/application/configmenu"
	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/cache"
	"github.com/dvd/backend/internal/infrastructure/config"
	"github.com/dvd/backend/internal/infrastructure/logger"
	"github.com/dvd/backend/internal/infrastructure/persistence"
	qrlogininfra "github.com/dvd/backend/internal/infrastructure/qrlogin"
)

// loginService is the part of the orchestration service the CLI drives
type loginService interface {
	StartLogin(ctx context.Context, req qrloginapp.StartLoginRequest) (*qrloginapp.StartLoginResponse, error)
	WaitLogin(ctx context.Context, req qrloginapp.WaitLoginRequest) (*qrloginapp.LoginStatusResponse, error)
	SendCode(ctx context.Context, req qrloginapp.SendCodeRequest) (*qrloginapp.SendCodeResponse, error)
	SubmitCode(ctx context.Context, req qrloginapp.SubmitCodeRequest) (*qrloginapp.LoginStatusResponse, error)
}

// app wires the login service the same way the server does, without HTTP
type app struct {
	service loginService
	log     *zap.Logger
	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return nil, err
	}
	a := &app{log: log}

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel)))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStores()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, stores.Close)

	drivers, err := qrlogininfra.NewDrivers(cfg.QRLogin, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, drivers.Close)

	menus := configmenu.NewService(persistence.NewGormConfigMenuRepository(db.DB), log)
	a.service = qrloginapp.NewService(qrloginapp.Dependencies{
		Resolver: qrlogininfra.NewFactory(menus, drivers.List...),
		Accounts: persistence.NewGormAccountRepository(db.DB),
		Attempts: stores.Attempts,
		Claims:   stores.Idempotency,
		Images:   qrlogininfra.NewImageRenderer(cfg.QRLogin.QRImageSize),
		Logger:   log,
	}, qrloginapp.Config{
		AttemptTTL: cfg.QRLogin.AttemptTTL,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}
