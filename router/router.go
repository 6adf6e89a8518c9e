package router

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// Option configures the router. It gets the underlying mux for plain HTTP
// handlers and the huma API (or group) for operations.
type Option func(*http.ServeMux, huma.API)

// New returns a mux serving liveness, readiness and metrics probes along with
// the huma API configured by opts.
func New(
	title, version string,
	readiness http.HandlerFunc,
	writeMetrics http.HandlerFunc,
	opts ...Option,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("GET /readiness", readiness)
	mux.HandleFunc("GET /metrics", writeMetrics)

	config := huma.DefaultConfig(title, version)
	config.CreateHooks = nil // no $schema links in response bodies
	api := humago.New(mux, config)
	for _, opt := range opts {
		opt(mux, api)
	}

	return mux
}

// OptUseMiddleware adds huma middlewares to the API the option is applied to.
func OptUseMiddleware(middlewares ...func(huma.Context, func(huma.Context))) Option {
	return func(_ *http.ServeMux, api huma.API) { api.UseMiddleware(middlewares...) }
}

// OptGroup applies opts to a group of operations mounted at prefix.
func OptGroup(prefix string, opts ...Option) Option {
	return func(mux *http.ServeMux, api huma.API) {
		group := huma.NewGroup(api, prefix)
		for _, opt := range opts {
			opt(mux, group)
		}
	}
}

// OptAutoRegister registers the operations of server, see [huma.AutoRegister].
func OptAutoRegister(server any) Option {
	return func(_ *http.ServeMux, api huma.API) { huma.AutoRegister(api, server) }
}

// OptMux lets register add plain HTTP handlers to the mux, outside of the huma API.
func OptMux(register func(*http.ServeMux)) Option {
	return func(mux *http.ServeMux, _ huma.API) { register(mux) }
}
