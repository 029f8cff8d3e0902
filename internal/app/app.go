package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/credstore"
	"github.com/niksmo/storefront/internal/adapter/httpclient"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

const srTimeout = 5 * time.Second

var registryPolicy = retry.Policy{
	Attempts:  3,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  3 * time.Second,
}

// App owns the synchronizers of one shopper and the adapters they use.
type App struct {
	ctx      context.Context
	cfg      config.Config
	messages port.Notifier

	api         port.CommerceAPI
	store       port.CredentialStore
	broadcaster *service.Broadcaster
	producer    *kafka.ClientEventsProducer
	unsubscribe []func()

	Session  *service.Session
	Catalog  *service.CatalogStore
	Cart     *service.CartSynchronizer
	Wishlist *service.WishlistSynchronizer
}

func New(ctx context.Context, cfg config.Config, messages port.Notifier) *App {
	app := &App{ctx: ctx, cfg: cfg, messages: messages}

	app.initLogger()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initClientEvents()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initOutboundAdapters() {
	cl := httpclient.New(
		app.cfg.API.BaseURL,
		httpclient.WithTimeout(app.cfg.API.Timeout),
	)
	app.api = httpclient.NewCommerceClient(cl)

	if path := app.cfg.Session.CredentialsFile; path != "" {
		app.store = credstore.NewFile(path)
	} else {
		app.store = credstore.NewMemory()
	}
}

func (app *App) initCoreService() {
	b := service.NewBroadcaster()
	app.broadcaster = b

	app.Session = service.NewSession(app.api, app.store, b)
	app.Cart = service.NewCartSynchronizer(app.api, app.Session, b, app.messages)
	app.Wishlist = service.NewWishlistSynchronizer(
		app.api, app.Session, b, app.messages,
	)
	app.Catalog = service.NewCatalogStore(
		app.api, app.api, app.Session, b, app.messages,
	)

	app.subscribe(app.Cart)
	app.subscribe(app.Wishlist)
	app.subscribe(app.Catalog)
}

func (app *App) initClientEvents() {
	const op = "App.initClientEvents"

	if !app.cfg.Broker.Enabled {
		slog.Debug("client events disabled", "op", op)
		return
	}

	tlsCfg, err := app.brokerTLS()
	if err != nil {
		app.fallDown(op, err)
	}

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.HTTPClient(&http.Client{
			Timeout:   srTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		}))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	topic := app.cfg.Broker.Topics.ClientEvents
	serde, err := retry.Value(app.ctx, registryPolicy,
		func(ctx context.Context) (schema.Serde, error) {
			return schema.NewSerdeClientEventV1(
				ctx,
				schema.SubjectOpt(topic+"-value"),
				schema.SchemaIdentifierOpt(schema.NewSchemaIdentifier(srClient)),
			)
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewClientEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, app.cfg.Broker.SeedBrokers, topic, tlsCfg,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.producer = producer
	app.subscribe(producer)
}

// brokerTLS returns nil when no CA file is configured.
func (app *App) brokerTLS() (*tls.Config, error) {
	t := app.cfg.Broker.TLS
	if t.CAFile == "" {
		return nil, nil
	}
	return adapter.MakeTLSConfig(t.CAFile, t.CertFile, t.KeyFile)
}

func (app *App) subscribe(l port.ChangeListener) {
	app.unsubscribe = append(app.unsubscribe, app.broadcaster.Subscribe(l))
}

func (app *App) Close() {
	slog.Info("application is closing...")

	for _, fn := range app.unsubscribe {
		fn()
	}
	if app.producer != nil {
		app.producer.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
