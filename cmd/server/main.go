package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/svasthya/ayurcare"
	"github.com/svasthya/ayurcare/clinic"
	"github.com/svasthya/ayurcare/config"
	"github.com/svasthya/ayurcare/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.AppConfig]
	bunDB  *bun.DB
	repo   repository.Manager
	auth   ayurcare.Authenticator
	auther *ayurcare.RouteAuthenticator
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.AppConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("ayurcare"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	WithHTTPServer(app)

	app.srv.Serve(app.Config().Server.Addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	app.bunDB = bunDB
	app.repo = repository.NewManager(bunDB)
	app.repo.MustValidate()

	return applyMigrations(ctx, app.repo)
}

// applyMigrations runs the embedded schema files in lexical order inside
// a single transaction, so a half-applied schema never persists. The
// files are idempotent, reruns on an existing database are safe.
func applyMigrations(ctx context.Context, repo repository.Manager) error {
	migFS, err := fs.Sub(ayurcare.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(migFS, ".")
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range names {
			contents, err := fs.ReadFile(migFS, name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
				return fmt.Errorf("migration %s failed: %w", name, err)
			}
		}
		return nil
	})
}

func WithAuth(_ context.Context, app *App) error {
	authCfg := app.Config().GetAuth()

	provider := ayurcare.NewAccountProvider(app.repo.Accounts()).
		WithLogger(app.GetLogger("auth:provider"))

	auther := ayurcare.NewAuthenticator(provider, app.repo.Accounts(), authCfg).
		WithLogger(app.GetLogger("auth"))

	httpAuth, err := ayurcare.NewHTTPAuthenticator(auther, auther.TokenService(), authCfg)
	if err != nil {
		return err
	}
	httpAuth.Logger = app.GetLogger("auth:http")

	app.auth = auther
	app.auther = httpAuth

	return nil
}

func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.Config().Name,
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	authCfg := app.Config().GetAuth()

	ayurcare.RegisterAuthRoutes(srv.Router(),
		ayurcare.WithControllerAccounts(app.repo.Accounts()),
		ayurcare.WithControllerAuther(app.auther),
		ayurcare.WithControllerLogger(app.GetLogger("auth:ctrl")),
		ayurcare.WithControllerContextKey(authCfg.GetContextKey()),
		ayurcare.WithControllerProduction(authCfg.IsProduction()),
	)

	svc := clinic.NewService(app.repo.Accounts(), app.repo.DietPlans()).
		WithLogger(app.GetLogger("clinic"))

	clinic.RegisterRoutes(srv.Router(), app.auther,
		clinic.WithService(svc),
		clinic.WithLogger(app.GetLogger("clinic:ctrl")),
		clinic.WithContextKey(authCfg.GetContextKey()),
		clinic.WithProduction(authCfg.IsProduction()),
	)

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
