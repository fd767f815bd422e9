package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parcours/internal/app"
	"parcours/internal/bus"
	"parcours/internal/history"
	jwttoken "parcours/internal/jwt_token"
	"parcours/internal/notification"
	"parcours/internal/platform/config"
	"parcours/internal/platform/metrics"
	platformredis "parcours/internal/platform/redis"
	"parcours/internal/ports"
	"parcours/internal/ratelimit"
	"parcours/internal/readview"
	"parcours/internal/storage/memory"
	"parcours/internal/storage/postgres"
	storeredis "parcours/internal/storage/redis"
	httptransport "parcours/internal/transport/http"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/circuit"
	"parcours/pkg/platform/outbox"
	outboxkafka "parcours/pkg/platform/outbox/kafka"
	outboxpg "parcours/pkg/platform/outbox/postgres"
)

// application is the wired process.
type application struct {
	router   http.Handler
	relay    *outbox.Relay
	consumer *outboxkafka.Consumer
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	a := &application{}
	m := metrics.New()

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	directory := newDirectory(cfg.Directory)
	sinks := func(out outbox.Appender) (ports.Notifier, ports.History) {
		return notification.NewOutboxNotifier(out, directory, notification.WithLogger(log)), history.NewOutbox(out)
	}

	var (
		uow      ports.UnitOfWork
		store    outbox.Store
		timeline history.Store = history.NewMemory()
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.DSN, postgres.Pool{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			a.close()
			return nil, err
		}
		uow, store = postgresUnitOfWork(db, sinks, rdb)
		timeline = postgres.NewHistoryStore(db)
	default:
		var seq ports.ReferenceSequence = memory.NewSequence()
		if rdb != nil {
			seq = storeredis.NewSequence(rdb.Client)
		}
		mem := outbox.NewMemoryStore()
		uow, store = memory.NewUnitOfWork(memory.NewDB(), seq, mem, sinks), mem
	}

	b := bus.New(bus.WithLogger(log), bus.WithMetrics(m))
	app.RegisterCommands(b, app.NewServices(uow, directory, log, m))

	viewOpts := []readview.Option{readview.WithLogger(log), readview.WithMetrics(m)}
	if rdb != nil {
		viewOpts = append(viewOpts, readview.WithCache(storeredis.NewDashboardCache(rdb.Client), cfg.Redis.DashboardTTL))
	}
	views := readview.New(uow, viewOpts...)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	var limiter *ratelimit.Middleware
	if cfg.RateLimit.Enabled {
		var counters ratelimit.Store = ratelimit.NewMemoryStore()
		if rdb != nil {
			counters = storeredis.NewRateLimitStore(rdb.Client)
		}
		limiter = ratelimit.New(counters, map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassRead:  {Requests: cfg.RateLimit.Reads, Window: cfg.RateLimit.Window},
			ratelimit.ClassWrite: {Requests: cfg.RateLimit.Writes, Window: cfg.RateLimit.Window},
		}, log, ratelimit.WithMetrics(m))
	}
	handler := httptransport.NewHandler(b, views, log, httptransport.WithTimeline(timeline))
	a.router = httptransport.NewRouter(handler, httptransport.RouterConfig{
		Validator:      jwttoken.NewJWTServiceAdapter(jwt),
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		Extra:          map[string]http.Handler{"/metrics": promhttp.Handler()},
		Limiter:        limiter,
	})

	projection := history.NewProjection(timeline, log)
	relayOpts := []outbox.RelayOption{
		outbox.WithRelayLogger(log),
		outbox.WithRelayMetrics(m),
		outbox.WithInterval(cfg.Kafka.RelayInterval),
		outbox.WithBatchSize(cfg.Kafka.RelayBatch),
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("no kafka brokers configured; history is projected in process and notifications are dropped")
		a.relay = outbox.NewRelay(store, projection, relayOpts...)
		return a, nil
	}

	publisher, err := outboxkafka.New(cfg.Kafka.Brokers, map[string]string{
		outbox.TopicNotification: cfg.Kafka.NotificationTopic,
		outbox.TopicHistory:      cfg.Kafka.HistoryTopic,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)
	if err := publisher.EnsureTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		a.close()
		return nil, err
	}
	relayOpts = append(relayOpts, outbox.WithBreaker(circuit.New("kafka-publisher")))
	a.relay = outbox.NewRelay(store, publisher, relayOpts...)

	topics := outboxkafka.NewRouter(log, nil)
	topics.Register(cfg.Kafka.HistoryTopic, projection)
	consumer, err := outboxkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.HistoryGroup, topics.Topics(), topics, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, consumer.Close)
	a.consumer = consumer
	return a, nil
}

func postgresUnitOfWork(db *sql.DB, sinks postgres.Sinks, rdb *platformredis.Client) (ports.UnitOfWork, outbox.Store) {
	out := outboxpg.New(db)
	var opts []postgres.Option
	if rdb != nil {
		opts = append(opts, postgres.WithSequence(storeredis.NewSequence(rdb.Client)))
	}
	return postgres.NewUnitOfWork(db, out, sinks, opts...), out
}

func newDirectory(cfg config.DirectoryConfig) *memory.Directory {
	d := memory.NewDirectory()
	for _, p := range cfg.People {
		person := ports.Person{
			Matricule: id.Matricule(p.Matricule),
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
			Language:  p.Language,
		}
		d.AddPerson(person)
		for _, r := range p.Roles {
			d.AddManager(ports.ManagerRole(r.Role), r.CDD, person)
		}
	}
	return d
}
