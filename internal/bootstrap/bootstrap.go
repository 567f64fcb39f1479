package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/content"
	appControllers "github.com/yigit/sqlguide/internal/app/controllers"
	appMigrations "github.com/yigit/sqlguide/internal/app/migrations"
	appRepos "github.com/yigit/sqlguide/internal/app/repositories"
	appRoutes "github.com/yigit/sqlguide/internal/app/routes"
	appServices "github.com/yigit/sqlguide/internal/app/services"
	"github.com/yigit/sqlguide/internal/config"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/db"
	"github.com/yigit/sqlguide/internal/grader"
	appMiddleware "github.com/yigit/sqlguide/internal/middleware"
	pkgAuth "github.com/yigit/sqlguide/internal/pkg/auth"
	"github.com/yigit/sqlguide/internal/pkg/filestorage"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
	"github.com/yigit/sqlguide/internal/pkg/logger"
	"github.com/yigit/sqlguide/internal/pkg/metrics"
	"github.com/yigit/sqlguide/internal/pkg/websocket"
	"github.com/yigit/sqlguide/internal/seed"
)

// DefaultConfigPath is used when no config file is named.
const DefaultConfigPath = "configs/config.yaml"

// Core holds what both the API server and the CLI work with
type Core struct {
	DB      *db.PostgresDB
	Catalog *curriculum.Catalog
	Grader  *grader.Grader
	Seeder  *seed.Seeder
	Metrics *metrics.Metrics
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	*Core
	Services            *appServices.Services
	AuthController      *appControllers.AuthController
	ChallengeController *appControllers.ChallengeController
	GradingController   *appControllers.GradingController
	AdminController     *appControllers.AdminController
	WebSocketHandler    *websocket.Handler
	AuthMiddleware      *appMiddleware.AuthMiddleware
	Repos               *appRepos.Repositories
	JWTService          *pkgAuth.JWTService
	Hub                 *websocket.Hub
	FileStorage         *filestorage.LocalStorage
	Logger              zerolog.Logger
}

// LoadConfigAndSetupLogger loads .env, the configuration and initializes the
// logger writing to out.
func LoadConfigAndSetupLogger(configPath string, out io.Writer) (*config.Config, zerolog.Logger, error) {
	envFiles, err := config.LoadDotEnv()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load .env")
		return nil, zerolog.Logger{}, err
	}

	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Format == "text",
		Output: out,
	})

	lgr := logger.Get()
	lgr.Debug().
		Str("logLevel", string(logLevel)).
		Str("logFormat", cfg.Logging.Format).
		Strs("envFiles", envFiles).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the connection pool.
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Debug().Str("database", cfg.Database.DBName).Msg("Database connection established")
	return database, nil
}

// SetupDatabase connects and applies the bookkeeping migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	migrator := appMigrations.NewMigrator(database.Pool, appMigrations.Files(), lgr)
	applied, err := migrator.Migrate(ctx)
	if err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations up to date")
	return database, nil
}

// LoadCatalog parses the embedded guide.
func LoadCatalog() (*curriculum.Catalog, error) {
	cat, err := curriculum.Load(content.Guide())
	if err != nil {
		return nil, fmt.Errorf("failed to load guide: %w", err)
	}
	return cat, nil
}

// BuildCore wires the catalog, grader and seeder on top of database.
func BuildCore(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Core, error) {
	cat, err := LoadCatalog()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	m.MustRegister(metrics.NewCatalogCollector(cat))

	g := grader.New(database.Pool, grader.Options{
		StatementTimeout: helpers.ParseDuration(cfg.Grader.StatementTimeout, grader.DefaultStatementTimeout),
		Parallelism:      cfg.Grader.Parallelism,
		Recorder:         m,
	}, lgr)

	return &Core{
		DB:      database,
		Catalog: cat,
		Grader:  g,
		Seeder:  seed.NewSeeder(database, database.Pool, content.SeedScript, lgr),
		Metrics: m,
	}, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, core *Core, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Core: core, Logger: lgr}

	deps.Repos = appRepos.NewRepositories(core.DB.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Reports.Directory, cfg.Reports.BaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize report storage")
		return nil, fmt.Errorf("failed to initialize report storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(lgr)

	deps.Services = &appServices.Services{
		AuthService:      appServices.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, deps.JWTService, lgr),
		ChallengeService: appServices.NewChallengeService(core.Catalog),
		GradingService:   appServices.NewGradingService(core.Catalog, core.Grader, cfg.Grader.MaxSQLLength, lgr),
		SeedService: appServices.NewSeedService(
			core.Seeder,
			deps.Repos.SeedRepository,
			core.Grader.Gate(),
			core.Metrics,
			lgr,
		),
		VerificationService: appServices.NewVerificationService(
			core.Catalog,
			core.Grader,
			deps.Repos.VerificationRepository,
			deps.FileStorage,
			deps.Hub,
			lgr,
		),
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.Services.AuthService, lgr)
	deps.ChallengeController = appControllers.NewChallengeController(deps.Services.ChallengeService)
	deps.GradingController = appControllers.NewGradingController(deps.Services.GradingService)
	deps.AdminController = appControllers.NewAdminController(deps.Services.SeedService, deps.Services.VerificationService, lgr)
	deps.WebSocketHandler = websocket.NewHandler(deps.Hub, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(), deps.Metrics.GinMiddleware())

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ChallengeController,
		deps.GradingController,
		deps.AdminController,
		deps.WebSocketHandler,
		deps.AuthMiddleware,
	)

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.Static(cfg.Reports.BaseURL, deps.FileStorage.BasePath())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	lgr.Debug().Str("mode", gin.Mode()).Msg("Router configured")
	return router
}
