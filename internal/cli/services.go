package cli

import (
	"context"
	"fmt"

	customershandler "tablebook/internal/customers/handler"
	customersrepository "tablebook/internal/customers/repository"
	customersservice "tablebook/internal/customers/service"
	locationshandler "tablebook/internal/locations/handler"
	locationsrepository "tablebook/internal/locations/repository"
	locationsservice "tablebook/internal/locations/service"
	"tablebook/internal/reservations/events"
	reservationshandler "tablebook/internal/reservations/handler"
	reservationsrepository "tablebook/internal/reservations/repository"
	reservationsservice "tablebook/internal/reservations/service"
	"tablebook/pkg/app"
	"tablebook/pkg/config"
	"tablebook/pkg/contracts"
	"tablebook/pkg/db/postgres"
	"tablebook/pkg/kafka"
	kafkamiddleware "tablebook/pkg/kafka/middleware"
)

type services struct {
	db           *postgres.DB
	producer     *kafka.Producer
	customers    customersservice.CustomerService
	locations    locationsservice.LocationService
	reservations reservationsservice.ReservationService
}

func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	app.ConfigureTracing(cfg)

	db, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.PostgresDSN(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnTimeout:     cfg.DBConnTimeout,
		Tracing:         cfg.TracingEnabled,
	}, cfg.Log)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &services{db: db}
	publisher, err := s.newPublisher(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	txManager := postgres.NewTransactionManager(db)
	s.customers = customersservice.NewCustomerService(
		customersrepository.NewPostgresCustomerRepository(cfg), db, txManager, cfg,
	)
	s.locations = locationsservice.NewLocationService(
		locationsrepository.NewPostgresLocationRepository(cfg), db, txManager, cfg,
	)
	s.reservations = reservationsservice.NewReservationService(
		reservationsrepository.NewPostgresReservationRepository(cfg), db, txManager, publisher, cfg,
	)

	cfg.Log.Info("Services initialized")
	return s, nil
}

func (s *services) newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.Kafka == nil || !cfg.Kafka.Enabled() {
		cfg.Log.Info("Kafka brokers not configured, reservation events disabled")
		return events.NoopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.KafkaReservationsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	s.producer = producer

	cfg.Log.Info("Reservation events enabled", "topic", cfg.KafkaReservationsTopic)
	return events.NewKafkaPublisher(producer), nil
}

func (s *services) handlers(cfg *config.Config) []contracts.Handler {
	return []contracts.Handler{
		customershandler.NewCustomerHandler(s.customers, cfg.Log),
		locationshandler.NewLocationHandler(s.locations, cfg.Log),
		reservationshandler.NewReservationHandler(s.reservations, cfg.Log),
	}
}

func (s *services) Close(cfg *config.Config) {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka producer", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		cfg.Log.Error("Failed to close database", "error", err)
	}
}
