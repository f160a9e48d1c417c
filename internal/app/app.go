package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dmarkin/storefront/config"
	"github.com/dmarkin/storefront/internal/adapter"
	"github.com/dmarkin/storefront/internal/adapter/assetstore"
	"github.com/dmarkin/storefront/internal/adapter/email"
	"github.com/dmarkin/storefront/internal/adapter/httphandler"
	"github.com/dmarkin/storefront/internal/adapter/kafka"
	"github.com/dmarkin/storefront/internal/adapter/storage"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/dmarkin/storefront/internal/core/service"
	"github.com/dmarkin/storefront/pkg/schema"
	"github.com/stripe/stripe-go/v82"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

type repositories struct {
	products      storage.ProductsRepository
	orders        storage.OrdersRepository
	verifications storage.VerificationsRepository
}

type coreServices struct {
	fulfillment service.FulfillmentService
	catalog     service.CatalogService
	downloads   service.DownloadService
}

type App struct {
	ctx         context.Context
	cfg         config.Config
	sqldb       storage.SQLDB
	repos       repositories
	blobs       port.BlobStore
	receipts    email.ResendClient
	orderPlaced port.OrderPlacedProducer
	services    coreServices
	httpServer  httphandler.HTTPServer
}

func New(context context.Context, config config.Config) *App {
	app := &App{ctx: context, cfg: config}

	app.initLogger()
	app.initStorage()
	app.initAssetStore()
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

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sqldb = sqldb
	app.repos.products = storage.NewProductsRepository(sqldb)
	app.repos.orders = storage.NewOrdersRepository(sqldb)
	app.repos.verifications = storage.NewVerificationsRepository(
		sqldb, app.cfg.Download.Validity,
	)
}

func (app *App) initAssetStore() {
	const op = "App.initAssetStore"

	switch app.cfg.Assets.Kind {
	case "hdfs":
		blobs, err := assetstore.NewHDFSStore(
			app.cfg.Assets.HDFSAddr, app.cfg.Assets.HDFSRoot,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.blobs = blobs
	default:
		blobs, err := assetstore.NewFSStore(app.cfg.Assets.FSRoot)
		if err != nil {
			app.fallDown(op, err)
		}
		app.blobs = blobs
	}
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	// The stripe SDK keeps one process-wide key, owned here.
	stripe.Key = app.cfg.Stripe.APIKey

	app.receipts = email.NewResendClient(http.DefaultClient, email.Config{
		APIKey:      app.cfg.Email.APIKey,
		Sender:      app.cfg.Email.Sender,
		DownloadURL: app.cfg.Download.PublicURL,
		BaseURL:     app.cfg.Email.APIURL,
	})

	if !app.cfg.Broker.Enabled {
		return
	}

	ctx := app.ctx
	brokerCfg := app.cfg.Broker

	srClient, err := sr.NewClient(sr.URLs(brokerCfg.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	orderPlacedSubject := brokerCfg.OrdersPlacedTopic + "-value"
	orderPlacedSerde, err := schema.NewSerdeOrderPlacedV1(
		ctx,
		schema.SubjectOpt(orderPlacedSubject),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	var extraOpts []kgo.Opt
	if tlsCfg := brokerCfg.TLS; tlsCfg.CA != "" {
		extraOpts = append(extraOpts, kgo.DialTLSConfig(
			adapter.MakeTLSConfig(tlsCfg.CA, tlsCfg.Cert, tlsCfg.Key),
		))
	}

	producer, err := kafka.NewOrderPlacedProducer(
		kafka.ProducerClientOpt(
			ctx, brokerCfg.SeedBrokers, brokerCfg.OrdersPlacedTopic,
			extraOpts...,
		),
		kafka.ProducerEncoderOpt(orderPlacedSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.orderPlaced = producer
}

func (app *App) initCoreServices() {
	app.services.fulfillment = service.NewFulfillment(
		app.repos.products,
		app.repos.orders,
		app.repos.verifications,
		app.receipts,
		app.orderPlaced,
	)
	app.services.catalog = service.NewCatalog(app.repos.products, app.blobs)
	app.services.downloads = service.NewDownloads(
		app.repos.verifications, app.repos.products, app.blobs,
	)
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterWebhook(
		mux, app.services.fulfillment, app.cfg.Stripe.WebhookSecret,
	)
	httphandler.RegisterAdminProducts(mux, app.services.catalog)
	httphandler.RegisterProducts(mux, app.services.catalog)
	httphandler.RegisterDownloads(mux, app.services.downloads)

	handler := httphandler.AllowMediaTypes(mux)
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
	if producer, ok := app.orderPlaced.(kafka.OrderPlacedProducer); ok {
		producer.Close()
	}
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
