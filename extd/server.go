package extd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prasastie/munggah/assets"
	"github.com/prasastie/munggah/container"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/transport/restapi"
	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ylog"
	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const defaultJaegerURL = "http://localhost:14268/api/traces"

// RunServer serve the admin HTTP API until SIGTERM or a transport error.
func RunServer(ctx context.Context, cfg container.Config) (err error) {

	if ctx == nil {
		ctx = context.TODO()
	}

	ctx = setupLog(ctx)

	err = setupTracer(ctx, cfg.Tracer)
	if err != nil {
		return
	}

	// ** setup repositories
	ylog.Info(ctx, "container preparation: starting")
	var repositories container.Repositories
	repositories, err = container.SetupRepositories(cfg.DatabaseResources)
	defer func() {
		ylog.Info(ctx, "closing container: starting")
		if repositories == nil {
			ylog.Info(ctx, "closing container: no need to close")
			return
		}

		if _err := repositories.Close(); _err != nil {
			ylog.Error(ctx, "closing container: failed", ylog.KV("error", _err))
		}

		ylog.Info(ctx, "closing container: done")
	}()

	if err != nil {
		ylog.Error(ctx, "container preparation: failed", ylog.KV("error", err))
		return
	}

	ylog.Info(ctx, "container preparation: done")

	// ** START SERVICES using configured repositories
	ylog.Info(ctx, "services preparation: starting")
	services, err := container.SetupServices(cfg.Services, repositories)
	if err != nil {
		ylog.Error(ctx, "service preparation: failed", ylog.KV("error", err))
		return
	}

	// ** HTTP TRANSPORT
	ylog.Info(ctx, "transport preparation: starting")
	serverConfig := restapi.Config{
		AppServiceName: assets.ServiceName,
		AppVersion:     assets.Version,
		SystemService:  services.System(),
		AccountRepo:    services.Account(),
		AuthzService:   services.Authz(),
	}

	ylog.Info(ctx, "http transport: starting")
	server, err := restapi.NewHTTPTransport(serverConfig)
	if err != nil {
		ylog.Error(ctx, "http transport: failed", ylog.KV("error", err))
		return
	}

	httpPort := fmt.Sprintf(":%d", cfg.Transport.HTTP.Port)
	h2s := &http2.Server{}
	httpServer := &http.Server{
		Addr:    httpPort,
		Handler: h2c.NewHandler(server.Server(), h2s), // HTTP/2 Cleartext handler
	}

	var apiErrChan = make(chan error, 1)
	go func() {
		ylog.Info(ctx, fmt.Sprintf("http transport: done running on port %d", cfg.Transport.HTTP.Port))
		apiErrChan <- httpServer.ListenAndServe()
	}()

	ylog.Info(ctx, "system: up and running...")

	// ** listen for sigterm signal
	var signalChan = make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signalChan:
		ylog.Info(ctx, "system: exiting...")
		ylog.Info(ctx, "http transport: exiting...")
		if _err := httpServer.Shutdown(ctx); _err != nil {
			ylog.Error(ctx, "http transport: ", ylog.KV("error", _err))
		}

	case err := <-apiErrChan:
		if err != nil {
			ylog.Info(ctx, "http transport: error", ylog.KV("error", err))
		}
	}

	// drain queued webhook deliveries before exit
	if jobWorker := services.Worker(); jobWorker != nil {
		ylog.Info(ctx, "job worker: draining...")
		jobWorker.Done()
	}

	return
}

func setupLog(ctx context.Context) context.Context {

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), // pipe to multiple writer
		zapcore.DebugLevel,
	)

	zapLog := zap.New(core)

	propagateData := tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}

	traceLog, err := ylog.NewTracer(propagateData, ylog.WithTag("tracer"))
	if err != nil {
		log.Fatalf("error prepare tracer system data: %s", err)
		return ctx
	}

	// inject context
	ctx = ylog.Inject(ctx, traceLog)

	// ** set global logger
	ylog.SetGlobalLogger(ylog.NewZap(zapLog))

	return ctx
}

func setupTracer(ctx context.Context, cfg container.ConfigTracer) error {
	if cfg.Disable {
		return nil
	}

	jaegerURL := cfg.JaegerURL
	if jaegerURL == "" {
		jaegerURL = defaultJaegerURL
	}

	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerURL)),
	)
	if err != nil {
		ylog.Error(ctx, "cannot setup jaeger exporter", ylog.KV("error", err))
		return err
	}

	tracer.InitTraceProvider(exp)

	// register ot propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		&ot.OT{},
		&jaegerPropagator.Jaeger{},
	))

	return nil
}
