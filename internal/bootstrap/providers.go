package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	apphttp "gitlab.com/arvora/api/storefront-service/internal/adapters/http"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/logger"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/memcache"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/middleware"
	appnats "gitlab.com/arvora/api/storefront-service/internal/adapters/nats"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/postgres"
	appredis "gitlab.com/arvora/api/storefront-service/internal/adapters/redis"
	wsadapter "gitlab.com/arvora/api/storefront-service/internal/adapters/websocket"
	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// LoginRateLimitMiddleware is a distinct type so Wire can tell the auth-group
// middleware apart from other func(http.Handler) http.Handler values.
type LoginRateLimitMiddleware func(http.Handler) http.Handler

// App bundles everything Run needs.
type App struct {
	configProvider config.Provider
	logger         domain.Logger
	httpServer     *http.Server
	router         *chi.Mux
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	natsPublisher  *appnats.PublisherAdapter
	cache          *memcache.MemoryCache
}

// NewApp is the constructor for App, used by Wire.
func NewApp(
	cfgProvider config.Provider,
	appLogger domain.Logger,
	server *http.Server,
	router *chi.Mux,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	natsPublisher *appnats.PublisherAdapter,
	cache *memcache.MemoryCache,
) (*App, func(), error) {
	app := &App{
		configProvider: cfgProvider,
		logger:         appLogger,
		httpServer:     server,
		router:         router,
		pool:           pool,
		redisClient:    redisClient,
		natsPublisher:  natsPublisher,
		cache:          cache,
	}
	cleanup := func() {
		app.logger.Info(context.Background(), "Running app cleanup...")
	}
	return app, cleanup, nil
}

// InitialZapLoggerProvider provides a basic *zap.Logger instance, primarily
// for config initialization before the main logger exists.
func InitialZapLoggerProvider() (*zap.Logger, func(), error) {
	zl, err := zap.NewProduction()
	if err != nil {
		zl, err = zap.NewDevelopment()
		if err != nil {
			zl = zap.NewExample()
			fmt.Fprintf(os.Stderr, "Failed to create initial zap logger, falling back to example: %v\n", err)
		}
	}
	cleanup := func() {
		if syncErr := zl.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync initial zap logger: %v\n", syncErr)
		}
	}
	return zl, cleanup, nil
}

// ConfigProvider provides the application configuration with hot reload.
func ConfigProvider(appCtx context.Context, zl *zap.Logger) (config.Provider, error) {
	return config.NewViperProvider(appCtx, zl)
}

// LoggerProvider provides the application logger.
func LoggerProvider(cfgProvider config.Provider) (domain.Logger, error) {
	appCfg := cfgProvider.Get()
	return logger.NewZapAdapter(cfgProvider, appCfg.App.ServiceName)
}

// PostgresPoolProvider provides the pgx connection pool and its cleanup,
// applying the embedded schema migrations first.
func PostgresPoolProvider(ctx context.Context, cfgProvider config.Provider, appLogger domain.Logger) (*pgxpool.Pool, func(), error) {
	if err := postgres.RunMigrations(ctx, cfgProvider.Get().Postgres.DSN, appLogger); err != nil {
		return nil, nil, err
	}
	return postgres.NewPool(ctx, cfgProvider, appLogger)
}

// RedisClientProvider provides a Redis client and a cleanup function.
func RedisClientProvider(cfgProvider config.Provider, appLogger domain.Logger) (*redis.Client, func(), error) {
	appCfg := cfgProvider.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     appCfg.Redis.Address,
		Password: appCfg.Redis.Password,
		DB:       appCfg.Redis.DB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		appLogger.Error(context.Background(), "Failed to connect to Redis", "error", err.Error(), "address", appCfg.Redis.Address)
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", appCfg.Redis.Address, err)
	}
	cleanup := func() {
		client.Close()
		appLogger.Info(context.Background(), "Redis connection closed")
	}
	appLogger.Info(context.Background(), "Successfully connected to Redis", "address", appCfg.Redis.Address)
	return client, cleanup, nil
}

// MemoryCacheProvider provides the in-process TTL cache with its janitor.
func MemoryCacheProvider(ctx context.Context, cfgProvider config.Provider, appLogger domain.Logger) *memcache.MemoryCache {
	interval := time.Duration(cfgProvider.Get().Cache.CleanupIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return memcache.NewMemoryCache(ctx, appLogger, interval)
}

// NatsPublisherProvider provides the domain-event publisher and its cleanup.
func NatsPublisherProvider(ctx context.Context, cfgProvider config.Provider, appLogger domain.Logger) (*appnats.PublisherAdapter, func(), error) {
	return appnats.NewPublisherAdapter(ctx, cfgProvider, appLogger)
}

// RefreshTokenStoreProvider provides the Redis-backed refresh token store.
func RefreshTokenStoreProvider(redisClient *redis.Client, appLogger domain.Logger) domain.RefreshTokenStore {
	return appredis.NewRefreshTokenStoreAdapter(redisClient, appLogger)
}

// RateLimiterProvider provides the fixed-window Redis rate limiter.
func RateLimiterProvider(redisClient *redis.Client, appLogger domain.Logger) *appredis.RateLimiterAdapter {
	return appredis.NewRateLimiterAdapter(redisClient, appLogger)
}

// Repository providers.

func CartRepositoryProvider(pool *pgxpool.Pool) domain.CartRepository {
	return postgres.NewCartRepository(pool)
}

func FavoritesRepositoryProvider(pool *pgxpool.Pool) domain.FavoritesRepository {
	return postgres.NewFavoritesRepository(pool)
}

func ProfileRepositoryProvider(pool *pgxpool.Pool) domain.ProfileRepository {
	return postgres.NewProfileRepository(pool)
}

func PromocodeRepositoryProvider(pool *pgxpool.Pool) domain.PromocodeRepository {
	return postgres.NewPromocodeRepository(pool)
}

func OrderRepositoryProvider(pool *pgxpool.Pool) domain.OrderRepository {
	return postgres.NewOrderRepository(pool)
}

func ProductCatalogProvider(pool *pgxpool.Pool) domain.ProductCatalog {
	return postgres.NewProductCatalog(pool)
}

// NotificationHubProvider provides the in-process event fan-out.
func NotificationHubProvider(appLogger domain.Logger) *application.NotificationHub {
	return application.NewNotificationHub(appLogger)
}

// EventPublisherProvider fans events out to NATS and the notification hub.
func EventPublisherProvider(appLogger domain.Logger, natsPublisher *appnats.PublisherAdapter, hub *application.NotificationHub) domain.EventPublisher {
	return application.NewBroadcaster(appLogger, natsPublisher, hub)
}

// Application service providers.

func AuthServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, profiles domain.ProfileRepository, tokens domain.RefreshTokenStore) *application.AuthService {
	return application.NewAuthService(appLogger, cfgProvider, profiles, tokens)
}

func CartServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, repo domain.CartRepository, profiles domain.ProfileRepository, catalog domain.ProductCatalog, cache *memcache.MemoryCache, events domain.EventPublisher) *application.CartService {
	return application.NewCartService(appLogger, cfgProvider, repo, profiles, catalog, cache, events)
}

func FavoritesServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, repo domain.FavoritesRepository, profiles domain.ProfileRepository, catalog domain.ProductCatalog, cache *memcache.MemoryCache, events domain.EventPublisher) *application.FavoritesService {
	return application.NewFavoritesService(appLogger, cfgProvider, repo, profiles, catalog, cache, events)
}

func ProfileServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, repo domain.ProfileRepository, cache *memcache.MemoryCache, events domain.EventPublisher) *application.ProfileService {
	return application.NewProfileService(appLogger, cfgProvider, repo, cache, events)
}

func PromocodeServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, repo domain.PromocodeRepository, cache *memcache.MemoryCache, events domain.EventPublisher) *application.PromocodeService {
	return application.NewPromocodeService(appLogger, cfgProvider, repo, cache, events)
}

func OrderServiceProvider(appLogger domain.Logger, cfgProvider config.Provider, repo domain.OrderRepository, profiles domain.ProfileRepository, cache *memcache.MemoryCache, events domain.EventPublisher) *application.OrderService {
	return application.NewOrderService(appLogger, cfgProvider, repo, profiles, cache, events)
}

// HTTP surface providers.

func CartHandlersProvider(service *application.CartService, appLogger domain.Logger) *apphttp.CartHandlers {
	return apphttp.NewCartHandlers(service, appLogger)
}

func FavoritesHandlersProvider(service *application.FavoritesService, appLogger domain.Logger) *apphttp.FavoritesHandlers {
	return apphttp.NewFavoritesHandlers(service, appLogger)
}

func ProfileHandlersProvider(service *application.ProfileService, appLogger domain.Logger) *apphttp.ProfileHandlers {
	return apphttp.NewProfileHandlers(service, appLogger)
}

func PromocodeHandlersProvider(service *application.PromocodeService, appLogger domain.Logger) *apphttp.PromocodeHandlers {
	return apphttp.NewPromocodeHandlers(service, appLogger)
}

func OrderHandlersProvider(service *application.OrderService, appLogger domain.Logger) *apphttp.OrderHandlers {
	return apphttp.NewOrderHandlers(service, appLogger)
}

// NotifierHandlerProvider provides the /ws/updates handler.
func NotifierHandlerProvider(appLogger domain.Logger, cfgProvider config.Provider, hub *application.NotificationHub) *wsadapter.NotifierHandler {
	return wsadapter.NewNotifierHandler(appLogger, cfgProvider, hub)
}

// LoginRateLimitMiddlewareProvider provides the limiter middleware for the
// public auth group.
func LoginRateLimitMiddlewareProvider(limiter *appredis.RateLimiterAdapter, cfgProvider config.Provider, appLogger domain.Logger) LoginRateLimitMiddleware {
	return middleware.RateLimitMiddleware(limiter, cfgProvider, appLogger, "login")
}

// RouterProvider assembles the chi router.
func RouterProvider(
	appLogger domain.Logger,
	authService *application.AuthService,
	loginLimit LoginRateLimitMiddleware,
	cart *apphttp.CartHandlers,
	favorites *apphttp.FavoritesHandlers,
	profile *apphttp.ProfileHandlers,
	promocodes *apphttp.PromocodeHandlers,
	orders *apphttp.OrderHandlers,
	notifier *wsadapter.NotifierHandler,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	natsPublisher *appnats.PublisherAdapter,
) *chi.Mux {
	return apphttp.NewRouter(apphttp.RouterDeps{
		Logger:          appLogger,
		AuthService:     authService,
		LoginRateLimit:  loginLimit,
		Cart:            cart,
		Favorites:       favorites,
		Profile:         profile,
		Promocodes:      promocodes,
		Orders:          orders,
		NotifierHandler: notifier,
		ReadyHandler:    readinessHandler(appLogger, pool, redisClient, natsPublisher),
	})
}

// HTTPServerProvider provides an HTTP server configured for graceful shutdown.
func HTTPServerProvider(cfgProvider config.Provider, router *chi.Mux) *http.Server {
	appCfg := cfgProvider.Get()
	writeTimeout := 10 * time.Second
	if appCfg.App.WriteTimeoutSeconds > 0 {
		writeTimeout = time.Duration(appCfg.App.WriteTimeoutSeconds) * time.Second
	}
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appCfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// ProviderSet is the Wire provider set for the entire application.
var ProviderSet = wire.NewSet(
	InitialZapLoggerProvider,
	ConfigProvider,
	LoggerProvider,

	// Infrastructure adapters
	PostgresPoolProvider,
	RedisClientProvider,
	MemoryCacheProvider,
	NatsPublisherProvider,
	RefreshTokenStoreProvider,
	RateLimiterProvider,

	// Repositories
	CartRepositoryProvider,
	FavoritesRepositoryProvider,
	ProfileRepositoryProvider,
	PromocodeRepositoryProvider,
	OrderRepositoryProvider,
	ProductCatalogProvider,

	// Application services
	NotificationHubProvider,
	EventPublisherProvider,
	AuthServiceProvider,
	CartServiceProvider,
	FavoritesServiceProvider,
	ProfileServiceProvider,
	PromocodeServiceProvider,
	OrderServiceProvider,

	// HTTP surface
	CartHandlersProvider,
	FavoritesHandlersProvider,
	ProfileHandlersProvider,
	PromocodeHandlersProvider,
	OrderHandlersProvider,
	NotifierHandlerProvider,
	LoginRateLimitMiddlewareProvider,
	RouterProvider,
	HTTPServerProvider,

	NewApp,
)
