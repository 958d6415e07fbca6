package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"bus-tracker/internal/auth"
	authmongo "bus-tracker/internal/auth/adapter/persistence/mongodb"
	"bus-tracker/internal/auth/adapter/persistence/redisstore"
	authconfig "bus-tracker/internal/auth/config"
	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"
	"bus-tracker/internal/bus"
	busmongo "bus-tracker/internal/bus/adapter/persistence/mongodb"
	busconfig "bus-tracker/internal/bus/config"
	busrepository "bus-tracker/internal/bus/domain/repository"
	"bus-tracker/internal/shared/eventbus"
	"bus-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container wires the modules together and owns the resources it opened
type Container struct {
	mu       sync.RWMutex
	services map[reflect.Type]interface{}
	// Module instances
	AuthModule *auth.AuthModule
	BusModule  *bus.BusModule
	EventBus   *eventbus.EventBus
	// Database connections
	MongoDB *mongo.Database
	Redis   *redis.Client
	// Configuration
	AuthConfig *authconfig.Config
	BusConfig  *busconfig.Config
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container with an event bus whose audit
// subscriber logs every domain event.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	events := eventbus.NewEventBus(log)
	events.SubscribeAll(eventbus.AuditHandler(log),
		eventbus.EventTypeUserRegistered,
		eventbus.EventTypeUserAuthenticated,
		eventbus.EventTypeUserLoggedOut,
		eventbus.EventTypeBusCreated,
		eventbus.EventTypeBusUpdated,
		eventbus.EventTypeBusDeleted,
	)

	c := &Container{
		services: make(map[reflect.Type]interface{}),
		EventBus: events,
		Logger:   log,
	}
	c.services[reflect.TypeOf(events)] = events
	return c
}

// InitializeAuth builds the MongoDB user repository, the session store
// selected by authConfig.SessionStore, and the auth module.
func (c *Container) InitializeAuth(ctx context.Context, mongoDB *mongo.Database, authConfig *authconfig.Config) error {
	users, err := authmongo.NewMongoUserRepository(ctx, mongoDB)
	if err != nil {
		return fmt.Errorf("failed to create user repository: %w", err)
	}

	var sessions repository.SessionStore
	switch authConfig.SessionStore {
	case authconfig.SessionStoreRedis:
		client := redisstore.NewRedisClient(authConfig.RedisAddr, authConfig.RedisPassword, authConfig.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.mu.Lock()
		c.Redis = client
		c.mu.Unlock()
		sessions = redisstore.NewRedisSessionStore(client)
	default:
		store, err := authmongo.NewMongoSessionStore(ctx, mongoDB)
		if err != nil {
			return fmt.Errorf("failed to create session store: %w", err)
		}
		sessions = store
	}

	c.mu.Lock()
	c.MongoDB = mongoDB
	c.mu.Unlock()

	return c.InitializeAuthWithStores(users, sessions, authConfig)
}

// InitializeAuthWithStores builds the auth module over caller-supplied stores
func (c *Container) InitializeAuthWithStores(users repository.UserRepository, sessions repository.SessionStore, authConfig *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	authModule, err := auth.NewAuthModule(users, sessions, c.EventBus, c.Logger, authConfig)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.AuthConfig = authConfig
	c.AuthModule = authModule
	c.services[reflect.TypeOf(sessions)] = sessions
	return nil
}

// InitializeBus builds the MongoDB bus repository and the bus module
func (c *Container) InitializeBus(ctx context.Context, mongoDB *mongo.Database, busConfig *busconfig.Config) error {
	repo, err := busmongo.NewMongoBusRepository(ctx, mongoDB, busConfig.Collection)
	if err != nil {
		return fmt.Errorf("failed to create bus repository: %w", err)
	}
	return c.InitializeBusWithRepository(repo, busConfig)
}

// InitializeBusWithRepository builds the bus module over a caller-supplied repository
func (c *Container) InitializeBusWithRepository(repo busrepository.BusRepository, busConfig *busconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	busModule, err := bus.NewBusModule(repo, c.EventBus, c.Logger, busConfig)
	if err != nil {
		return fmt.Errorf("failed to create bus module: %w", err)
	}

	c.BusConfig = busConfig
	c.BusModule = busModule
	c.services[reflect.TypeOf(repo)] = repo
	return nil
}

// RegisterRoutes mounts the auth routes, then the bus routes behind the
// role guards. The caller adds the fallback afterwards.
func (c *Container) RegisterRoutes(router fiber.Router) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.AuthModule == nil {
		return errors.New("auth module must be initialized before routes are registered")
	}
	if c.BusModule == nil {
		return errors.New("bus module must be initialized before routes are registered")
	}

	c.AuthModule.RegisterRoutes(router)
	c.BusModule.RegisterRoutes(router,
		c.AuthModule.Guard(model.RoleDriver),
		c.AuthModule.Guard(model.RoleStudent),
	)
	return nil
}

// Register registers a service instance under its dynamic type
func (c *Container) Register(service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[reflect.TypeOf(service)] = service
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if service, exists := c.services[serviceType]; exists {
		return service, nil
	}
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	service, err := c.Resolve(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}
	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// HealthCheck pings the backing stores
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoDB != nil {
		if err := c.MongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}
	return nil
}

// Cleanup stops the modules in reverse order of initialization and closes
// the connections the container opened.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.BusModule != nil {
		if err := c.BusModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop bus module: %w", err))
		}
		c.BusModule = nil
	}

	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop auth module: %w", err))
		}
		c.AuthModule = nil
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis client: %w", err))
		}
		c.Redis = nil
	}

	for _, eventType := range []string{
		eventbus.EventTypeUserRegistered,
		eventbus.EventTypeUserAuthenticated,
		eventbus.EventTypeUserLoggedOut,
		eventbus.EventTypeBusCreated,
		eventbus.EventTypeBusUpdated,
		eventbus.EventTypeBusDeleted,
	} {
		c.EventBus.Unsubscribe(eventType)
	}

	c.services = make(map[reflect.Type]interface{})
	return errors.Join(errs...)
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed")
	return nil
}
