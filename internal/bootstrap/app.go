package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/offer_funnel/internal/config"
	"github.com/locvowork/offer_funnel/internal/database"
	"github.com/locvowork/offer_funnel/internal/funnel"
	"github.com/locvowork/offer_funnel/internal/handler"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/internal/repository"
	"github.com/locvowork/offer_funnel/internal/service"
)

type App struct {
	Echo *echo.Echo
	DB   *sql.DB

	closers []func() error
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

// LoadSettings reads the environment, starts logging and loads the roster.
func LoadSettings(ctx context.Context, rosterPath string) (*config.Roster, error) {
	if err := config.LoadEnvConfig(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	if rosterPath == "" {
		rosterPath = config.DefaultEnvConfig.ROSTER_FILE
	}
	roster, err := config.LoadRoster(rosterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster %s: %w", rosterPath, err)
	}
	logger.InfoLog(ctx, "Roster loaded: %d sheets", len(roster.SalesPeople))
	return roster, nil
}

// FunnelOptions builds run options from the environment and the roster.
func FunnelOptions(roster *config.Roster) funnel.Options {
	return funnel.Options{
		ScanRows: config.DefaultEnvConfig.HEADER_SCAN_ROWS,
		Columns:  funnel.WithHeaderOverrides(funnel.DefaultColumnSpecs(), roster.Columns),
		Workers:  config.DefaultEnvConfig.SHEET_WORKERS,
	}
}

// ConnectSinks opens every sink the environment enables. The returned
// closer releases whatever was opened.
func ConnectSinks(ctx context.Context) (service.Sinks, *sql.DB, func(), error) {
	var sinks service.Sinks
	var db *sql.DB
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if config.DefaultEnvConfig.DB_ENABLED {
		dbConfig := database.Config{
			Host:            config.DefaultEnvConfig.DB_HOST,
			Port:            config.DefaultEnvConfig.DB_PORT,
			User:            config.DefaultEnvConfig.DB_USER,
			Password:        config.DefaultEnvConfig.DB_PASSWORD,
			DBName:          config.DefaultEnvConfig.DB_NAME,
			SSLMode:         config.DefaultEnvConfig.DB_SSL_MODE,
			MaxOpenConns:    config.DefaultEnvConfig.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    config.DefaultEnvConfig.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: config.DefaultEnvConfig.DB_CONN_MAX_LIFETIME,
		}

		var err error
		db, err = database.NewPostgresDB(ctx, dbConfig)
		if err != nil {
			return sinks, nil, closeAll, fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, db.Close)

		repo := repository.NewOfferRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return sinks, nil, closeAll, err
		}
		sinks.Offers = repo
		logger.InfoLog(ctx, "Database connection established successfully")
	}

	if url := config.DefaultEnvConfig.ELASTIC_URL; url != "" {
		es, err := database.NewElasticSearchClient(url, config.DefaultEnvConfig.ELASTIC_INDEX)
		if err != nil {
			return sinks, nil, closeAll, err
		}
		sinks.Index = es
		logger.InfoLog(ctx, "Elasticsearch index %s enabled", config.DefaultEnvConfig.ELASTIC_INDEX)
	}

	if project := config.DefaultEnvConfig.DATASTORE_PROJECT; project != "" {
		ds, err := database.DialDatastore(ctx, project)
		if err != nil {
			return sinks, nil, closeAll, err
		}
		closers = append(closers, ds.Close)
		sinks.Snapshots = ds
		logger.InfoLog(ctx, "Datastore snapshots enabled for project %s", project)
	}

	return sinks, db, closeAll, nil
}

func (a *App) Initialize(ctx context.Context) error {
	roster, err := LoadSettings(ctx, "")
	if err != nil {
		return err
	}

	sinks, db, closeSinks, err := ConnectSinks(ctx)
	if err != nil {
		closeSinks()
		return err
	}
	a.DB = db
	a.closers = append(a.closers, func() error { closeSinks(); return nil })

	// Initialize dependencies
	funnelSvc := service.NewFunnelService(roster.SalesPeople, FunnelOptions(roster), sinks)
	funnelHandler := handler.NewFunnelHandler(funnelSvc)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(funnelHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	if config.DefaultEnvConfig != nil && config.DefaultEnvConfig.MAX_UPLOAD_MB > 0 {
		a.Echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", config.DefaultEnvConfig.MAX_UPLOAD_MB)))
	}
}

func (a *App) RegisterRoutes(funnelHandler *handler.FunnelHandler) {
	a.Echo.GET("/healthz", funnelHandler.HealthHandler)

	runs := a.Echo.Group("/runs")
	runs.POST("", funnelHandler.RunHandler)
	runs.POST("/ledger-report", funnelHandler.LedgerReportHandler)
	runs.GET("/:id/ledgers/:salesPerson", funnelHandler.RunLedgerHandler)

	offers := a.Echo.Group("/offers")
	offers.GET("", funnelHandler.ListOffersHandler)
	offers.GET("/search", funnelHandler.SearchOffersHandler)
	offers.GET("/:salesPerson/:sl", funnelHandler.GetOfferHandler)
}

func (a *App) Run() error {
	defer a.Close()
	return a.Echo.Start(fmt.Sprintf(":%d", config.DefaultEnvConfig.APP_PORT))
}

// Close releases the sinks opened by Initialize.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}
