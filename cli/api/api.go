package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/oaiiae/phonebook/cli/storage"
	"github.com/oaiiae/phonebook/contacts"
	"github.com/oaiiae/phonebook/handlers"
	"github.com/oaiiae/phonebook/pages"
	"github.com/oaiiae/phonebook/router"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                        default:"0.0.0.0"`
	Port              string        `short:"p" doc:"port to listen on"                        default:"3000"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers"     default:"15s"`
	ShutdownTimeout   time.Duration `          doc:"time allowed to drain requests on a stop" default:"1m"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix"           default:"/api"`
	CORS            bool   `doc:"allow cross-origin requests from any origin" default:"true"`
}

type BuildInfo struct {
	Title, Version, Revision, Created string
}

func NewRouter(
	options *RouterOptions,
	build BuildInfo,
	backend *storage.Backend,
	logger *slog.Logger,
) http.Handler {
	huma.NewError = handlers.NewError // {"error": "..."} bodies, also for errors raised by huma

	buildinfoMetric := fmt.Sprintf("build_info{goversion=%q,title=%q,version=%q,revision=%q,created=%q,mode=%q} 1\n",
		runtime.Version(), build.Title, build.Version, build.Revision, build.Created, backend.Mode)
	metriks := metrics.NewSet()
	h := router.New(build.Title, build.Version,
		readiness(backend.Store, logger),
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			newRequestMetrics(metriks).middleware,
			ctxlog{}.recoverMiddleware(logger),
		),
		router.OptAutoRegister(&handlers.Health{
			Mode:     backend.Mode,
			Database: backend.Database,
			Pinger:   backend.Store,
		}),
		router.OptGroup(options.EndpointsPrefix,
			router.OptAutoRegister(&handlers.Contacts{
				Service:      contacts.NewService(backend.Store),
				ErrorHandler: ctxlog{}.errorHandler(logger),
			}),
		),
		router.OptMux((&pages.Pages{
			API:    options.EndpointsPrefix + "/contacts",
			Logger: logger,
		}).Register),
	)

	if options.CORS {
		h = cors.AllowAll().Handler(h)
	}
	return h
}

func readiness(store interface{ Ping(context.Context) error }, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.LogAttrs(r.Context(), slog.LevelWarn, "store is not ready", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}

// ctxlog is the [context.Context] key of the request logger.
type ctxlog struct{}

// logger returns the request logger of ctx, or fallback outside of a request.
func (key ctxlog) logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// loggerMiddleware stores a request logger in the context and writes the access log
// line once the request is served. Requests without an X-Request-Id header get a
// generated one, echoed in the response.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.SetHeader("X-Request-Id", requestID)
		logger := parent.With("x-request-id", requestID)
		op := ctx.Operation()

		start := time.Now()
		next(huma.WithValue(ctx, key, logger.WithGroup("op").With("id", op.OperationID)))

		logger.LogAttrs(context.Background(), slog.LevelInfo,
			op.Method+" "+op.Path+" "+ctx.Version().Proto,
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ref", ctx.Header("Referer")),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// recoverMiddleware logs panics and answers them with a generic 500.
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			if v := recover(); v != nil {
				key.logger(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
					"panic occurred", slog.Any("recovered", v))
				ctx.SetHeader("Content-Type", "application/json")
				ctx.SetStatus(http.StatusInternalServerError)
				_, _ = ctx.BodyWriter().Write([]byte(`{"error":"Internal server error"}`))
			}
		}()
		next(ctx)
	}
}

// errorHandler logs operation errors on the request logger, at the level of
// their [handlers.ErrorModel] when they carry one.
func (key ctxlog) errorHandler(fallback *slog.Logger) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level, attrs := slog.LevelError, []slog.Attr{slog.Any("err", err)}
		if model := (*handlers.ErrorModel)(nil); errors.As(err, &model) {
			level = model.Level()
			attrs = append(attrs, slog.Int("status", model.GetStatus()))
		}
		key.logger(ctx, fallback).LogAttrs(context.Background(), level, "error occurred", attrs...)
	}
}

type requestKey struct {
	opID   string
	status int
}

type requestMeter struct {
	total    *metrics.Counter
	duration *metrics.PrometheusHistogram
}

// requestMetrics counts requests and observes their duration per operation and status.
type requestMetrics struct {
	set     *metrics.Set
	buckets []float64

	mu     sync.Mutex
	meters map[requestKey]requestMeter
}

func newRequestMetrics(set *metrics.Set) *requestMetrics {
	return &requestMetrics{
		set:     set,
		buckets: metrics.ExponentialBuckets(1e-3, 5, 6), //nolint: mnd // 1ms to ~3s
		meters:  make(map[requestKey]requestMeter),
	}
}

func (m *requestMetrics) meter(op *huma.Operation, status int) requestMeter {
	key := requestKey{op.OperationID, status}

	m.mu.Lock()
	defer m.mu.Unlock()
	meter, ok := m.meters[key]
	if !ok {
		labels := fmt.Sprintf(`{method=%q,path=%q,status="%d"}`, op.Method, op.Path, status)
		meter = requestMeter{
			total:    m.set.NewCounter("http_requests_total" + labels),
			duration: m.set.NewPrometheusHistogramExt("http_request_duration_seconds"+labels, m.buckets),
		}
		m.meters[key] = meter
	}
	return meter
}

func (m *requestMetrics) middleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	meter := m.meter(ctx.Operation(), ctx.Status())
	meter.total.Inc()
	meter.duration.UpdateDuration(start)
}
