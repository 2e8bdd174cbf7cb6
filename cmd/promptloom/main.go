package main

import (
	"context"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/promptloom/promptloom/internal/config"
	"github.com/promptloom/promptloom/internal/infra/content"
	"github.com/promptloom/promptloom/internal/infra/database"
	"github.com/promptloom/promptloom/internal/infra/repository"
	"github.com/promptloom/promptloom/internal/present/rest"
	"github.com/promptloom/promptloom/internal/present/rest/middleware"
	"github.com/promptloom/promptloom/internal/service"
	"github.com/promptloom/promptloom/internal/store"
	"github.com/promptloom/promptloom/internal/usecase"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	conf, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	ctx := context.Background()

	snapshotRepo := repository.NewSnapshotRepository(db)
	records, err := snapshotRepo.Load(ctx)
	if err != nil {
		panic("failed to load collection snapshot: " + err.Error())
	}

	blobs, err := content.NewBlobStore(conf.Server.BlobPath)
	if err != nil {
		panic("failed to open blob store: " + err.Error())
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	signal := service.NewSignalService(rdb)

	auth := service.NewAuthService(conf.Gallery.AuthSecret, nil)
	if conf.Server.MemcachedAddr != "" {
		auth = service.NewAuthService(conf.Gallery.AuthSecret, database.NewMemcached(conf.Server.MemcachedAddr))
	}

	gallery := usecase.NewGalleryUsecase(store.New(records), snapshotRepo, blobs, signal)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	if conf.Server.EnableTrace {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(conf.Server.TraceEndpoint))
		if err != nil {
			panic("failed to create trace exporter: " + err.Error())
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		defer func() {
			_ = provider.Shutdown(ctx)
		}()
		otel.SetTracerProvider(provider)
		e.Use(otelecho.Middleware("promptloom"))
	}

	authMiddleware := middleware.NewAuthMiddleware(auth)
	e.Use(authMiddleware.IdentifyActor)

	handler := rest.NewHandler(gallery, signal, blobs)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}
