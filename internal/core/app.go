// Package core is the composition root: it wires the repositories,
// services, graph engine and event bus into one application.
package core

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridt-app/gridt/internal/announcement"
	"github.com/gridt-app/gridt/internal/config"
	"github.com/gridt-app/gridt/internal/database"
	"github.com/gridt-app/gridt/internal/email"
	"github.com/gridt-app/gridt/internal/events"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/movement"
	"github.com/gridt-app/gridt/internal/network"
	"github.com/gridt-app/gridt/internal/observability"
	"github.com/gridt-app/gridt/internal/relation"
	"github.com/gridt-app/gridt/internal/signal"
)

// Stores bundles the persistence interfaces the services are built on.
type Stores struct {
	Users         identity.Repository
	Movements     movement.Repository
	Relations     relation.Repository
	Links         network.Repository
	Signals       signal.Repository
	Announcements announcement.Repository
}

// Options tunes the wiring. The zero value gives production behavior.
type Options struct {
	// Txer wraps the graph wiring in serializable transactions. Nil
	// runs the statements directly (in-memory stores).
	Txer database.Transactor
	// Clock defaults to the wall clock.
	Clock clockwork.Clock
	// Rand defaults to the global math/rand source.
	Rand network.Rand
	// Registry receives the Prometheus metrics; nil disables them.
	Registry prometheus.Registerer
	// Notifier overrides the identity mail delivery; nil builds one
	// from the email configuration.
	Notifier identity.Notifier
}

// App holds every wired service of the gridt core.
type App struct {
	Config  *config.Config
	Bus     *events.Bus
	Metrics *observability.Metrics

	Identity      *identity.Service
	Movements     *movement.Service
	Subscriptions *relation.SubscriptionService
	Creations     *relation.CreationService
	Signals       *signal.Service
	Announcements *announcement.Service
	Engine        *network.Engine
	Introspector  *network.Introspector
}

// New wires the application over a live database connection.
func New(cfg *config.Config, db *database.Connection) (*App, error) {
	stores := Stores{
		Users:         identity.NewPGRepository(db),
		Movements:     movement.NewPGRepository(db),
		Relations:     relation.NewPGRepository(db),
		Links:         network.NewPGRepository(db),
		Signals:       signal.NewPGRepository(db),
		Announcements: announcement.NewPGRepository(db),
	}
	return NewWithStores(cfg, stores, Options{
		Txer:     db,
		Registry: prometheus.DefaultRegisterer,
	})
}

// NewWithStores wires the application over arbitrary stores. Tests use
// this with the in-memory mocks.
func NewWithStores(cfg *config.Config, stores Stores, opts Options) (*App, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var metrics *observability.Metrics
	if opts.Registry != nil {
		metrics = observability.NewMetrics(opts.Registry)
	}
	bus := events.NewBus(metrics)

	notifier := opts.Notifier
	if notifier == nil {
		sender, err := email.NewSender(&cfg.Email)
		if err != nil {
			return nil, err
		}
		notifier = email.NewNotifier(sender, cfg.Email.Templates, cfg.BaseURL)
	}

	tokens := identity.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTL, clock)
	hasher := identity.NewHasher(cfg.Auth.BcryptCost)
	identityService := identity.NewService(stores.Users, hasher, tokens, notifier)

	engine := network.NewEngine(
		stores.Links,
		stores.Users,
		stores.Signals,
		opts.Txer,
		network.Config{
			LeadersPerFollower:  cfg.Network.LeadersPerFollower,
			MessageHistoryDepth: cfg.Network.MessageHistoryDepth,
		},
		opts.Rand,
		clock,
		metrics,
	)

	signalService := signal.NewService(stores.Signals, stores.Relations, clock, metrics)
	announcementService := announcement.NewService(stores.Announcements, stores.Users, stores.Movements, clock, metrics)
	movementService := movement.NewService(stores.Movements, stores.Relations, announcementService, signalService, engine)
	subscriptionService := relation.NewSubscriptionService(stores.Relations, stores.Users, stores.Movements, movementService, bus, clock, metrics)
	creationService := relation.NewCreationService(stores.Relations, stores.Users, stores.Movements, subscriptionService, bus, clock)
	introspector := network.NewIntrospector(stores.Links, stores.Relations, stores.Signals)

	registerGraphHooks(bus, engine)

	return &App{
		Config:        cfg,
		Bus:           bus,
		Metrics:       metrics,
		Identity:      identityService,
		Movements:     movementService,
		Subscriptions: subscriptionService,
		Creations:     creationService,
		Signals:       signalService,
		Announcements: announcementService,
		Engine:        engine,
		Introspector:  introspector,
	}, nil
}

// registerGraphHooks attaches the wiring routines to the subscription
// lifecycle. Each listener opens its own transactional scope, so a
// failing one neither undoes the subscription nor blocks its peers.
func registerGraphHooks(bus *events.Bus, engine *network.Engine) {
	bus.On(events.EventSubscribe, func(ctx context.Context, p events.Payload) error {
		return engine.AddInitialLeaders(ctx, p.UserID, p.MovementID)
	})
	bus.On(events.EventSubscribe, func(ctx context.Context, p events.Payload) error {
		return engine.AddInitialFollowers(ctx, p.UserID, p.MovementID)
	})
	bus.On(events.EventUnsubscribe, func(ctx context.Context, p events.Payload) error {
		return engine.RemoveAllLeaders(ctx, p.UserID, p.MovementID)
	})
	bus.On(events.EventUnsubscribe, func(ctx context.Context, p events.Payload) error {
		return engine.RemoveAllFollowers(ctx, p.UserID, p.MovementID)
	})
}
