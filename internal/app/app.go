package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/crazybooks/storefront/config"
	"github.com/crazybooks/storefront/internal/adapter/httphandler"
	"github.com/crazybooks/storefront/internal/adapter/kafka"
	"github.com/crazybooks/storefront/internal/adapter/platform"
	"github.com/crazybooks/storefront/internal/adapter/storage"
	"github.com/crazybooks/storefront/internal/core/service"
	"github.com/crazybooks/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type adapters struct {
	platform   *platform.Client
	sqldb      storage.SQLDB
	cartEvents kafka.CartEventsProducer
}

type services struct {
	catalog *service.CatalogService
	cart    *service.CartService
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	adapters   adapters
	services   services
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initOutboundAdapters()
	app.initCoreServices()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	pc, err := platform.New(platform.Config{
		BaseURL:    app.cfg.Platform.BaseURL,
		ProjectKey: app.cfg.Platform.ProjectKey,
		AuthToken:  app.cfg.Platform.AuthToken,
		Locale:     app.cfg.Platform.Locale,
		TaxCountry: app.cfg.Platform.TaxCountry,
		Currency:   app.cfg.Platform.Currency,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.adapters.platform = pc

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.adapters.sqldb = sqldb

	app.adapters.cartEvents = app.makeCartEventsProducer(op)
}

func (app *App) makeCartEventsProducer(op string) kafka.CartEventsProducer {
	urls := app.cfg.Broker.SchemaRegistryURLs
	topic := app.cfg.Broker.CartEventsTopic

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeCartEventV1(
		app.ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(app.ctx, app.cfg.Broker.SeedBrokers, topic),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return producer
}

func (app *App) initCoreServices() {
	const op = "App.initCoreServices"

	app.services.catalog = service.NewCatalog(app.adapters.platform)
	if err := app.services.catalog.LoadCategories(app.ctx); err != nil {
		// the catalog can start without categories, they reload lazily
		slog.With("op", op).Warn("failed to preload categories", "err", err)
	}

	app.services.cart = service.NewCart(service.CartServiceDeps{
		Carts:  app.adapters.platform,
		Taxes:  app.adapters.platform,
		Promos: app.adapters.platform,
		Auth:   app.adapters.platform,
		Refs:   storage.NewCartRefRepository(app.adapters.sqldb),
		Events: app.adapters.cartEvents,
	})
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.services.catalog)
	httphandler.RegisterCart(mux, app.services.cart)
	httphandler.RegisterAuth(mux, app.services.cart)

	handler := httphandler.WithSession(httphandler.AllowJSON(mux))
	httpServer := httphandler.NewHTTPServer(addr, handler)
	app.httpServer = httpServer
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.adapters.cartEvents.Close()
	app.adapters.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
