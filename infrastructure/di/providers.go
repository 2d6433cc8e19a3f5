// Package di wires the application together. Providers are plain
// constructor functions; wire.go holds the injector that the wire tool
// turns into generated code, and container.go carries the hand-checked
// equivalent used by the entrypoints.
package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	commandhandlers "arbor/application/commands/handlers"
	"arbor/application/ports"
	"arbor/application/queries"
	querybus "arbor/application/queries/bus"
	queryhandlers "arbor/application/queries/handlers"
	"arbor/application/services"
	"arbor/infrastructure/config"
	"arbor/infrastructure/messaging"
	"arbor/infrastructure/messaging/eventbridge"
	"arbor/infrastructure/persistence/dynamodb"
	"arbor/infrastructure/persistence/memory"
	"arbor/infrastructure/persistence/postgres"
	"arbor/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	Storage          *Storage
	EventPublisher   ports.EventPublisher
	JWTService       *auth.JWTService
	HierarchyService *services.HierarchyService
	AuthService      *services.AuthService
	CommandBus       *bus.CommandBus
	QueryBus         *querybus.QueryBus
}

// Shutdown releases held resources
func (c *Container) Shutdown() {
	if c.Storage != nil {
		c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// Storage bundles the store implementations selected by STORE_DRIVER
type Storage struct {
	Nodes      ports.NodeStore
	UnitOfWork ports.UnitOfWork
	Users      ports.UserStore
	Tokens     ports.RefreshTokenStore

	pool *pgxpool.Pool
}

// Close releases the underlying connection pool, if any
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideJWTService creates the token signer/validator
func ProvideJWTService(cfg *config.Config) (*auth.JWTService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		// Tolerated outside production; Validate rejects it there
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{cfg.JWTAudience},
		AccessTTL: cfg.AccessTTL,
	})
}

// ProvideStorage selects and builds the store implementations for the
// configured driver. The dynamodb driver keeps accounts and refresh
// tokens in memory; only the hierarchy lives in the table.
func ProvideStorage(ctx context.Context, cfg *config.Config, ddb *awsdynamodb.Client) (*Storage, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Storage{
			Nodes:      postgres.NewNodeStore(pool),
			UnitOfWork: postgres.NewUnitOfWork(pool),
			Users:      postgres.NewUserStore(pool),
			Tokens:     postgres.NewRefreshTokenStore(pool),
			pool:       pool,
		}, nil

	case config.StoreDynamoDB:
		return &Storage{
			Nodes:      dynamodb.NewNodeStore(ddb, cfg.DynamoDBTable, cfg.ParentIndex),
			UnitOfWork: dynamodb.NewUnitOfWork(ddb, cfg.DynamoDBTable, cfg.ParentIndex),
			Users:      memory.NewUserStore(),
			Tokens:     memory.NewRefreshTokenStore(),
		}, nil

	case config.StoreMemory:
		arena := memory.NewStore()
		return &Storage{
			Nodes:      arena.NodeStore(),
			UnitOfWork: arena.UnitOfWork(),
			Users:      memory.NewUserStore(),
			Tokens:     memory.NewRefreshTokenStore(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// ProvideEventPublisher creates the event publisher: EventBridge when a
// bus name is configured, a noop otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewNoopPublisher()
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideHierarchyService creates the hierarchy service
func ProvideHierarchyService(storage *Storage, publisher ports.EventPublisher, logger *zap.Logger) *services.HierarchyService {
	return services.NewHierarchyService(storage.UnitOfWork, storage.Nodes, publisher, logger)
}

// ProvideAuthService creates the auth service
func ProvideAuthService(storage *Storage, jwtService *auth.JWTService, cfg *config.Config, logger *zap.Logger) *services.AuthService {
	return services.NewAuthService(storage.Users, storage.Tokens, jwtService, cfg.RefreshTTL, logger)
}

// ProvideCommandBus creates a command bus with all handlers registered
func ProvideCommandBus(hierarchy *services.HierarchyService) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateNodeCommand{}, commandhandlers.NewCreateNodeHandler(hierarchy)},
		{commands.UpdateNodeCommand{}, commandhandlers.NewUpdateNodeHandler(hierarchy)},
		{commands.MoveNodeCommand{}, commandhandlers.NewMoveNodeHandler(hierarchy)},
		{commands.DeleteNodeCommand{}, commandhandlers.NewDeleteNodeHandler(hierarchy)},
	}
	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, reg.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with all handlers registered
func ProvideQueryBus(hierarchy *services.HierarchyService) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetNodeQuery{}, queryhandlers.NewGetNodeHandler(hierarchy)},
		{queries.ListRootsQuery{}, queryhandlers.NewListRootsHandler(hierarchy)},
		{queries.ExportTreeQuery{}, queryhandlers.NewExportTreeHandler(hierarchy)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, reg.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}
