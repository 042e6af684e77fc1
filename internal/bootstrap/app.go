package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/poa_management/apigateway/internal/config"
	"github.com/locvowork/poa_management/apigateway/internal/database"
	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/handler"
	"github.com/locvowork/poa_management/apigateway/internal/logger"
	"github.com/locvowork/poa_management/apigateway/internal/repository"
	"github.com/locvowork/poa_management/apigateway/internal/service"
	"github.com/locvowork/poa_management/apigateway/pkg/googlecloud"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
	GCP  *googlecloud.Client
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	if cfg.DB_AUTO_MIGRATE {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.InfoLog(ctx, "Database schema applied")
	}

	generator, err := newGenerator(cfg.POA_TEMPLATE_PATH)
	if err != nil {
		return err
	}

	logStore, err := a.uploadLogStore(ctx, cfg.UPLOAD_LOG_STORE, cfg.GCP_PROJECT_ID)
	if err != nil {
		return err
	}

	poaRepo := repository.NewPOARepository(db)
	excelHandler := handler.NewPOAExcelHandler(
		service.NewImportService(poaRepo, logStore),
		service.NewExportService(poaRepo, generator),
		service.NewReportService(poaRepo),
	)
	logHandler := handler.NewUploadLogHandler(service.NewUploadLogService(logStore))

	a.RegisterMiddlewares(cfg.MAX_UPLOAD_MB)
	a.RegisterRoutes(excelHandler, logHandler)

	return nil
}

func newGenerator(templatePath string) (*poaexcel.Generator, error) {
	if templatePath == "" {
		return poaexcel.NewGenerator(), nil
	}
	tpl, err := poaexcel.LoadTemplate(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load POA template: %w", err)
	}
	return poaexcel.NewGenerator(poaexcel.WithTemplate(tpl)), nil
}

func (a *App) uploadLogStore(ctx context.Context, kind, projectID string) (domain.UploadLogStore, error) {
	if kind != config.UploadLogStoreDatastore {
		return repository.NewUploadLogRepository(a.DB), nil
	}

	if host := googlecloud.EmulatorHost(); host != "" {
		logger.InfoLog(ctx, "Using Datastore emulator at %s", host)
	}
	client, err := googlecloud.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCP client: %w", err)
	}
	a.GCP = client
	return repository.NewDatastoreUploadLogStore(client), nil
}

func (a *App) RegisterMiddlewares(maxUploadMB int) {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	a.Echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxUploadMB)))
}

func (a *App) RegisterRoutes(excelHandler *handler.POAExcelHandler, logHandler *handler.UploadLogHandler) {
	a.Echo.POST("/transformar_excel", excelHandler.ImportHandler)
	a.Echo.GET("/poas/:id/excel", excelHandler.ExportHandler)

	reportGroup := a.Echo.Group("/reporte-poa")
	reportGroup.POST("", excelHandler.ReportHandler)
	reportGroup.POST("/excel", excelHandler.ReportExcelHandler)

	a.Echo.GET("/logs-carga-excel", logHandler.ListHandler)
	a.Echo.GET("/logs-carga-excel/:id", logHandler.GetHandler)
	a.Echo.GET("/poas/:id/logs-carga-excel/count", logHandler.CountHandler)
}

func (a *App) Run() error {
	defer a.DB.Close()
	if a.GCP != nil {
		defer a.GCP.Close()
	}
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}
