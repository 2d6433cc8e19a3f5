//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"arbor/infrastructure/config"
)

// InitializeContainer creates a fully wired container. Mirrors the
// injector in wire.go.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ddbClient := ProvideDynamoDBClient(awsCfg)
	ebClient := ProvideEventBridgeClient(awsCfg)

	jwtService, err := ProvideJWTService(cfg)
	if err != nil {
		return nil, err
	}

	storage, err := ProvideStorage(ctx, cfg, ddbClient)
	if err != nil {
		return nil, err
	}

	publisher := ProvideEventPublisher(cfg, ebClient, logger)
	hierarchy := ProvideHierarchyService(storage, publisher, logger)
	authService := ProvideAuthService(storage, jwtService, cfg, logger)

	commandBus, err := ProvideCommandBus(hierarchy)
	if err != nil {
		storage.Close()
		return nil, err
	}
	queryBus, err := ProvideQueryBus(hierarchy)
	if err != nil {
		storage.Close()
		return nil, err
	}

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Storage:          storage,
		EventPublisher:   publisher,
		JWTService:       jwtService,
		HierarchyService: hierarchy,
		AuthService:      authService,
		CommandBus:       commandBus,
		QueryBus:         queryBus,
	}, nil
}
