package cmd

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wikirecon/reconcile/internal/api"
	"github.com/wikirecon/reconcile/internal/api/handlers"
	"github.com/wikirecon/reconcile/internal/cache"
	"github.com/wikirecon/reconcile/internal/config"
	"github.com/wikirecon/reconcile/internal/monitoring"
	"github.com/wikirecon/reconcile/internal/reconcile"
	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/upstream"
)

// app is the fully wired dependency graph the serve and warm-cache
// commands both operate on.
type app struct {
	cfg       config.Config
	cache     cache.Cache
	client    *upstream.Client
	entities  *store.EntityStore
	types     *store.TypeMatcher
	sitelinks *store.SitelinkResolver
	idents    *store.IdentifierIndex
	identSet  *store.IdentifierSet
	engine    *reconcile.Engine
	extension *reconcile.ExtensionEngine
	suggest   *reconcile.SuggestEngine
	monitor   *monitoring.Monitor
}

func buildApp(cfg config.Config, logger zerolog.Logger) (*app, error) {
	c, err := cache.New(cfg.Cache.URI, cfg.Cache.KeyPrefix, logger)
	if err != nil {
		return nil, err
	}

	client := upstream.NewClient(cfg.Wikibase.MediawikiEndpoint, cfg.Wikibase.GraphQueryEndpoint, cfg.Wikibase.UserAgent)

	entities := store.NewEntityStore(client, c)
	types := store.NewTypeMatcher(client, c)
	sitelinks := store.NewSitelinkResolver(client, c)
	idents := store.NewIdentifierIndex(client, c)
	identSet := store.NewIdentifierSet(client, c)
	monitor := monitoring.New(c, cfg.Cache.KeyPrefix)

	engine := reconcile.NewEngine(entities, types, sitelinks, idents, identSet, client, reconcile.Config{
		DefaultNumResults:     cfg.Reconcile.DefaultNumResults,
		WdAPIMaxSearchResults: cfg.Reconcile.WdAPIMaxSearchResults,
		ValidationThreshold:   cfg.Reconcile.ValidationThreshold,
		AvoidClassID:          cfg.Wikibase.AvoidClassID,
		DefaultLanguage:       "en",
	})
	extension := reconcile.NewExtensionEngine(entities, "en")
	suggest := reconcile.NewSuggestEngine(entities, client, client, reconcile.SuggestConfig{
		DefaultLanguage:     "en",
		PropertyForThisType: cfg.Wikibase.PropertyForThisType,
		ImageProperties:     cfg.Reconcile.ImageProperties,
		FallbackImageURL:    cfg.Reconcile.FallbackImageURL,
		FallbackImageAlt:    cfg.Reconcile.FallbackImageAlt,
		PreviewWidth:        cfg.Reconcile.PreviewWidth,
		PreviewHeight:       cfg.Reconcile.PreviewHeight,
	})

	return &app{
		cfg:       cfg,
		cache:     c,
		client:    client,
		entities:  entities,
		types:     types,
		sitelinks: sitelinks,
		idents:    idents,
		identSet:  identSet,
		engine:    engine,
		extension: extension,
		suggest:   suggest,
		monitor:   monitor,
	}, nil
}

// buildRouter assembles the HTTP handler tree from the wired app and a
// manifest already resolved from config + the optional YAML manifest file.
func buildRouter(a *app, logger zerolog.Logger, manifest handlers.ManifestConfig) http.Handler {
	deps := api.Dependencies{
		Engine:    a.engine,
		Extension: a.extension,
		Suggest:   a.suggest,
		Monitor:   a.monitor,
		Manifest:  manifest,
		KnownLang: func(lang string) bool {
			return len(lang) >= 2 && len(lang) <= 3
		},
	}
	return api.NewRouter(deps, logger)
}
