package app

import (
	"context"

	"watchpost/config"
	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/incident"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notification"
	"watchpost/internals/modules/notification/provider"
	"watchpost/internals/modules/report"
	"watchpost/internals/modules/result"
	"watchpost/internals/modules/statuspage"
	"watchpost/pkg/httpclient"
	"watchpost/pkg/rabbitmq"
	"watchpost/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	RabbitConn  *amqp091.Connection
	Logger      *zerolog.Logger

	Consumer       *rabbitmq.Consumer
	AuditPublisher *rabbitmq.Publisher

	Recorder    *audit.Recorder
	Dispatcher  *notification.Dispatcher
	Coordinator *incident.Coordinator
	Processor   *result.Processor
	Activator   *report.Activator

	monitorHandler  *monitor.Handler
	notifHandler    *notification.Handler
	incidentHandler *incident.Handler
	resultHandler   *result.Handler
	reportHandler   *report.Handler
	pageHandler     *statuspage.Handler
	auditHandler    *audit.Handler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	if err := rabbitmq.SetupTopology(rabbitConn, cfg.RabbitMQ); err != nil {
		return nil, err
	}

	consumer, err := rabbitmq.NewConsumer(rabbitConn, cfg.RabbitMQ.ResultQueue, cfg.RabbitMQ.WorkerCount)
	if err != nil {
		return nil, err
	}

	// The audit fanout is optional. The recorder treats a nil publisher
	// as "store only", so the interface must stay nil when disabled.
	var auditPublisher *rabbitmq.Publisher
	var eventPublisher audit.EventPublisher
	if cfg.Audit.PublishEvents {
		auditPublisher, err = rabbitmq.NewPublisher(rabbitConn, cfg.RabbitMQ.AuditExchange, cfg.RabbitMQ.AuditRoutingKey)
		if err != nil {
			return nil, err
		}
		eventPublisher = auditPublisher
	}

	validator := validator.New()
	httpClient := httpclient.NewHttpClient()

	monitorRepo := monitor.NewRepository(db, logger)
	notifRepo := notification.NewRepository(db, logger)
	incidentRepo := incident.NewRepository(db, logger)
	reportRepo := report.NewRepository(db, logger)
	pageRepo := statuspage.NewRepository(db, logger)
	auditRepo := audit.NewRepository(db, logger)

	recorder := audit.NewRecorder(ctx, auditRepo, eventPublisher, cfg.Audit, logger)

	registry := provider.NewRegistry(httpClient, cfg.Providers)
	dispatcher := notification.NewDispatcher(ctx, notifRepo, registry, recorder, cfg.Dispatcher, logger)

	monitorSvc := monitor.NewService(monitorRepo, redisClient, logger)
	coordinator := incident.NewCoordinator(incidentRepo, redisClient, monitorSvc, dispatcher, recorder, logger)
	processor := result.NewProcessor(ctx, monitorSvc, redisClient, coordinator, cfg.Result, logger)

	notifSvc := notification.NewService(notifRepo, registry, logger)
	incidentSvc := incident.NewService(incidentRepo, redisClient, recorder, logger)
	reportSvc := report.NewService(reportRepo, logger)
	activator := report.NewActivator(reportRepo, logger)
	pageSvc := statuspage.NewService(pageRepo, monitorRepo, reportSvc, redisClient, cfg.StatusPage, logger)

	return &Container{
		DB:          db,
		RedisClient: redisClient,
		RabbitConn:  rabbitConn,
		Logger:      logger,

		Consumer:       consumer,
		AuditPublisher: auditPublisher,

		Recorder:    recorder,
		Dispatcher:  dispatcher,
		Coordinator: coordinator,
		Processor:   processor,
		Activator:   activator,

		monitorHandler:  monitor.NewHandler(monitorSvc, validator),
		notifHandler:    notification.NewHandler(notifSvc, validator),
		incidentHandler: incident.NewHandler(incidentSvc, validator),
		resultHandler:   result.NewHandler(processor, validator),
		reportHandler:   report.NewHandler(reportSvc, validator),
		pageHandler:     statuspage.NewHandler(pageSvc, validator),
		auditHandler:    audit.NewHandler(auditRepo),
	}, nil
}

// Shutdown tears the pipeline down back to front: stop intake first,
// then drain the workers, then flush the audit buffer, then close infra.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Consumer.Shutdown(ctx); err != nil {
		c.Logger.Error().Err(err).Msg("consumer shutdown failed")
	}

	c.Processor.Close()
	c.Dispatcher.Close()
	c.Activator.Stop()
	c.Recorder.Close()

	if c.AuditPublisher != nil {
		if err := c.AuditPublisher.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("audit publisher close failed")
		}
	}
	if c.RabbitConn != nil {
		if err := c.RabbitConn.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("rabbitmq connection close failed")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("redis close failed")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
