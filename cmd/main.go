package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/radiomap/viewer/client"
	"github.com/radiomap/viewer/featureflag"
	"github.com/radiomap/viewer/framing"
	viewerhttp "github.com/radiomap/viewer/http"
	"github.com/radiomap/viewer/models"
	"github.com/radiomap/viewer/orchestrator"
	"github.com/radiomap/viewer/render"
	"github.com/radiomap/viewer/smoketest"
	vwebsocket "github.com/radiomap/viewer/websocket"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The viewer version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "viewer_info",
		Help:        "Viewer information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"VIEWER_ADDR"                 help:"Listening address for browser connections."`
	AdminAddr          string        `cli:""        env:"VIEWER_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"VIEWER_PUBLIC_ENDPOINT"      help:"The public endpoint where this viewer is reachable."`
	APIEndpoint        string        `cli:""        env:"VIEWER_API_ENDPOINT"         help:"The origin of the simulation service."`
	SceneID            int           `cli:""        env:"VIEWER_SCENE_ID"             help:"The scene requested to the simulation service."`
	DeploymentFile     string        `cli:""        env:"VIEWER_DEPLOYMENT_FILE"      help:"A JSON, YAML or TOML file describing the base stations and user equipments to deploy."`
	FitOffset          float64       `cli:""        env:"VIEWER_FIT_OFFSET"           help:"The margin applied when framing the scene mesh."`
	Codec              string        `cli:""        env:"VIEWER_CODEC"                help:"The encoding of frames sent to browsers (json|proto)."`
	LogLevel           string        `cli:""        env:"VIEWER_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"VIEWER_LOG_INDENT"           help:"Indent logs."`
	RequestTimeout     time.Duration `cli:",hidden" env:"VIEWER_REQUEST_TIMEOUT"      help:"The timeout of simulation service requests. Zero means no timeout."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"VIEWER_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle browser will be disconnected."`
	FrameDuration      time.Duration `cli:",hidden" env:"VIEWER_FRAME_DURATION"       help:"The duration of a rendered frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"VIEWER_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Events             eventsConfig  `cli:",hidden" env:"-"                           help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"VIEWER_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                           help:"Show version."`
	Help               bool          `cli:""        env:"-"                           help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"VIEWER_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed. Events are disabled when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"VIEWER_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"VIEWER_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"VIEWER_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":8080",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:8080",
		APIEndpoint:        client.DefaultEndpoint,
		SceneID:            orchestrator.DefaultSceneID,
		FitOffset:          framing.DefaultFitOffset,
		Codec:              vwebsocket.CodecJSON,
		LogLevel:           logs.InfoLevel.String(),
		ClientIdleTimeout:  vwebsocket.DefaultClientIdleTimeout,
		FrameDuration:      render.DefaultFrameDuration,
		LogSummaryInterval: time.Minute,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the radio scene viewer.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	deployment, err := loadDeployment(conf.DeploymentFile)
	if err != nil {
		logs.Fatal(errors.New("error loading deployment").Wrap(err))
	}

	codec, err := vwebsocket.CodecByName(conf.Codec)
	if err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "viewer",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)

	viewer := models.NewViewerContext(models.NewCamera(
		models.DefaultFov,
		models.DefaultAspect,
		models.DefaultNear,
		models.DefaultFar,
	))

	loop := render.NewLoop(viewer, conf.FrameDuration)
	go loop.Run(ctx)

	loader := orchestrator.Orchestrator{
		API: client.NewClient(
			client.WithEndpoint(conf.APIEndpoint),
			client.WithTransport(transport),
			client.WithTimeout(conf.RequestTimeout),
			client.WithEncoder(json.Marshal),
			client.WithDecoder(json.Unmarshal),
		),
		Viewer:       viewer,
		SceneID:      conf.SceneID,
		Deployment:   deployment,
		FitOptions:   framing.Options{FitOffset: conf.FitOffset},
		FeatureFlags: featureFlags,
	}
	go func() {
		// Failures are logged and shown in the viewer status.
		loader.Run(ctx)
	}()

	readinessCheck := func() bool {
		return orchestrator.SceneReady(viewer.Status().Stage)
	}

	var service http.ServeMux
	service.Handle("/health", viewerhttp.HandleWithCORS(http.HandlerFunc(viewerhttp.HandleHealthCheck)))
	service.Handle("/version", viewerhttp.HandleWithCORS(viewerhttp.HandleVersion(version)))
	service.Handle("/ready", viewerhttp.HandleWithCORS(viewerhttp.HandleReadyCheck(readinessCheck)))
	service.Handle("/status", viewerhttp.HandleWithCORS(viewerhttp.HandleStatus(viewer)))
	service.Handle("/viewport", viewerhttp.HandleWithCORS(viewerhttp.HandleViewport(viewer)))

	service.Handle("/viewer", websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var vh vwebsocket.Handler = &vwebsocket.ViewerHandler{
				Viewer:            viewer,
				Frames:            loop,
				Codec:             codec,
				ClientIdleTimeout: conf.ClientIdleTimeout,
			}
			h := vwebsocket.HandlerWithLogs(vh, conf.LogSummaryInterval)
			h = vwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			vwebsocket.Handle(ctx, conn, h)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", viewerhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", viewerhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/smoketest", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: "viewer-smoketest/" + version,
	}))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("api_endpoint", conf.APIEndpoint).
		WithTag("scene_id", conf.SceneID).
		WithTag("codec", codec.Name()).
		WithTag("feature_flags", featureFlags.List()).
		Info("starting viewer")

	viewerhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			viewerhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if _, err := url.ParseRequestURI(conf.APIEndpoint); err != nil {
		return errors.New("invalid api endpoint").Wrap(err)
	}

	if conf.FitOffset <= 0 {
		return errors.New("fit offset must be positive").
			WithTag("fit_offset", conf.FitOffset)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	if conf.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative").
			WithTag("request_timeout", conf.RequestTimeout)
	}

	if _, err := vwebsocket.CodecByName(conf.Codec); err != nil {
		return err
	}
	return nil
}
