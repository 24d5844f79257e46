//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/dormhub/service-booking/internal/application"
	"github.com/dormhub/service-booking/internal/domain/pricing"
	bookingEvents "github.com/dormhub/service-booking/internal/events"
	"github.com/dormhub/service-booking/internal/platform/database"
	"github.com/dormhub/service-booking/internal/platform/kafka"
	"github.com/dormhub/service-booking/internal/platform/lock"
	"github.com/dormhub/service-booking/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Redis        *redis.Client
	Cleanup      func()
}

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Coordinator     *application.TransitionCoordinator
	Queries         *application.BookingQueries
	Rates           *repository.GormRateRepository
	Pricing         *application.PricingService
	Consumer        *bookingEvents.PaymentEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL, Redis and Kafka testcontainers, applies
// the SQL migrations and returns connected clients.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_booking",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbCfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbCfg.DatabaseURL(), "migrations", logger))

	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)
	redisClient := lock.NewRedisClient(net.JoinHostPort(redisHost, redisPort.Port()), "", 0)
	require.NoError(t, redisClient.Ping(ctx).Err())

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, "booking.events", "payment.events")

	cleanup := func() {
		_ = redisClient.Close()
		for name, c := range map[string]testcontainers.Container{
			"Kafka":      kafkaContainer,
			"Redis":      redisContainer,
			"PostgreSQL": pgContainer,
		} {
			if err := c.Terminate(ctx); err != nil {
				t.Logf("failed to terminate %s container: %v", name, err)
			}
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Redis:        redisClient,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires up the full booking service stack the way main does,
// with the Redis booking lock.
func setupBookingStack(t *testing.T, infra *testInfra) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	rates := repository.NewGormRateRepository(infra.DB)
	producer := kafka.NewProducer(infra.KafkaBrokers, logger)
	locker := lock.NewRedisLocker(infra.Redis, "test:lock:", 10*time.Second, 3*time.Second, logger)

	pricingService := application.NewPricingService(rates, pricing.NewEngine(), logger)
	coordinator := application.NewTransitionCoordinator(
		repository.NewGormUnitOfWork(infra.DB),
		locker,
		pricingService,
		application.NewRefundProcessor(logger),
		producer,
		logger,
	)
	queries := application.NewBookingQueries(
		repository.NewGormBookingRepository(infra.DB),
		repository.NewGormPaymentRepository(infra.DB),
		repository.NewGormStatusEventRepository(infra.DB),
		logger,
	)

	groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
	consumer := bookingEvents.NewPaymentEventConsumer(infra.KafkaBrokers, groupID, coordinator, logger)

	return &bookingStack{
		Coordinator:     coordinator,
		Queries:         queries,
		Rates:           rates,
		Pricing:         pricingService,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedRoom stores a monthly_with_daily room at 5000/month and 300/day.
func seedRoom(t *testing.T, stack *bookingStack) (roomID, propertyID uuid.UUID) {
	t.Helper()
	roomID, propertyID = uuid.New(), uuid.New()
	daily := decimal.NewFromInt(300)
	require.NoError(t, stack.Rates.Upsert(context.Background(), pricing.RateConfig{
		RoomID:      roomID,
		PropertyID:  propertyID,
		Policy:      pricing.PolicyMonthlyWithDaily,
		MonthlyRate: decimal.NewFromInt(5000),
		DailyRate:   &daily,
	}))
	return roomID, propertyID
}

// seedDailyRoom stores a daily room at 300/day with a zero monthly rate.
func seedDailyRoom(t *testing.T, stack *bookingStack) uuid.UUID {
	t.Helper()
	roomID := uuid.New()
	daily := decimal.NewFromInt(300)
	require.NoError(t, stack.Rates.Upsert(context.Background(), pricing.RateConfig{
		RoomID:      roomID,
		PropertyID:  uuid.New(),
		Policy:      pricing.PolicyDaily,
		MonthlyRate: decimal.Zero,
		DailyRate:   &daily,
	}))
	return roomID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPaymentStatus polls payment_records until the status matches.
func waitForPaymentStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.PaymentRecordModel {
	t.Helper()
	var result repository.PaymentRecordModel
	require.Eventually(t, func() bool {
		var model repository.PaymentRecordModel
		if err := db.Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.PaymentStatus == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "payment did not transition to %s", expectedStatus)
	return result
}

// waitForAmountCollected polls payment_records until amount_collected matches.
func waitForAmountCollected(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expected decimal.Decimal, timeout time.Duration) repository.PaymentRecordModel {
	t.Helper()
	var result repository.PaymentRecordModel
	require.Eventually(t, func() bool {
		var model repository.PaymentRecordModel
		if err := db.Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		result = model
		return model.AmountCollected.Equal(expected)
	}, timeout, 200*time.Millisecond, "amount collected did not reach %s", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type for the given subject.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
