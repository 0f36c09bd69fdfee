// Package api wires the reconciliation, extension, and suggest engines
// onto HTTP routes, matching the reconciliation-service API shape.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wikirecon/reconcile/internal/api/handlers"
	"github.com/wikirecon/reconcile/internal/api/middleware"
	"github.com/wikirecon/reconcile/internal/monitoring"
	"github.com/wikirecon/reconcile/internal/reconcile"
)

// Dependencies is everything the router needs to construct its handlers.
type Dependencies struct {
	Engine    *reconcile.Engine
	Extension *reconcile.ExtensionEngine
	Suggest   *reconcile.SuggestEngine
	Monitor   *monitoring.Monitor
	Manifest  handlers.ManifestConfig
	KnownLang func(lang string) bool
}

// NewRouter builds the complete HTTP handler tree: language-prefix and
// JSONP middleware wrapping every route named in the service's external
// interface.
func NewRouter(deps Dependencies, logger zerolog.Logger) http.Handler {
	reconcileHandler := handlers.NewReconcileHandler(deps.Engine, deps.Extension, deps.Monitor, deps.Manifest)
	suggestHandler := handlers.NewSuggestHandler(deps.Suggest)
	extendHandler := handlers.NewExtendHandler(deps.Extension)
	monitoringHandler := handlers.NewMonitoringHandler(deps.Monitor)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz())
	mux.Handle("/monitoring", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(monitoringHandler.Monitoring),
	}))

	mux.Handle("/api", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(reconcileHandler.API),
		http.MethodPost: http.HandlerFunc(reconcileHandler.API),
	}))
	mux.Handle("/suggest/type", methodMux(getPost(suggestHandler.Type())))
	mux.Handle("/suggest/property", methodMux(getPost(suggestHandler.Property())))
	mux.Handle("/suggest/entity", methodMux(getPost(suggestHandler.Entity())))
	mux.Handle("/flyout/type", methodMux(getPost(suggestHandler.Flyout())))
	mux.Handle("/flyout/property", methodMux(getPost(suggestHandler.Flyout())))
	mux.Handle("/flyout/entity", methodMux(getPost(suggestHandler.Flyout())))
	mux.Handle("/preview", methodMux(getPost(suggestHandler.Preview())))
	mux.Handle("/fetch_values", methodMux(getPost(http.HandlerFunc(extendHandler.FetchValues))))
	mux.Handle("/fetch_property_by_batch", methodMux(getPost(http.HandlerFunc(extendHandler.FetchPropertyByBatch))))
	mux.Handle("/fetch_properties_by_batch", methodMux(getPost(http.HandlerFunc(extendHandler.FetchPropertiesByBatch))))
	mux.Handle("/propose_properties", methodMux(getPost(suggestHandler.ProposeProperties())))

	var handler http.Handler = mux
	handler = middleware.LanguagePrefix(deps.KnownLang)(handler)
	handler = middleware.JSONP(handler)
	handler = middleware.RequestLogging(logger)(handler)
	return handler
}

func getPost(h http.Handler) map[string]http.Handler {
	return map[string]http.Handler{
		http.MethodGet:  h,
		http.MethodPost: h,
	}
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
