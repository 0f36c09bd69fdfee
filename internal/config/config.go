package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every runtime knob for the reconciliation service, loaded
// once at startup from the environment (and optional .env files).
type Config struct {
	Server      ServerConfig
	Wikibase    WikibaseConfig
	Cache       CacheConfig
	Reconcile   ReconcileConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Host        string
	Port        int
	BaseURL     string // this service's own externally-reachable URL, embedded in manifest/suggest responses
	ServiceName string
}

// WikibaseConfig describes the upstream knowledge base this service
// reconciles against: its API endpoints, id grammar, and the properties
// used to drive type matching and candidate discovery.
type WikibaseConfig struct {
	MediawikiEndpoint string // action API: wbgetentities, query, wbsearchentities
	GraphQueryEndpoint string // SPARQL-like endpoint for subclass closure / identifier sets
	NamespaceID       int
	NamespacePrefix   string
	IdentifierIRISpace string
	SchemaIRISpace     string
	QidPattern        string // regex with one capture group for the numeric id
	PidPattern        string // regex with one capture group for the numeric id
	URLPattern        string // canonical entity URL template, e.g. "https://www.wikidata.org/wiki/%s"
	DefaultTypeEntity  string // e.g. "Q35120" (entity)
	TypePropertyPath   string // e.g. "P31/P279*"
	PropertyForThisType string // e.g. "P1963"
	AvoidClassID       string // reconciliation candidates that are instances of a subclass of this id are dropped, e.g. "Q17442446"
	UserAgent          string
	AutodescribeEndpoint string // nullable: empty disables autodescribe
}

type CacheConfig struct {
	URI       string // redis://... ; empty means in-memory only
	KeyPrefix string
}

// ReconcileConfig carries the numeric thresholds and presentation knobs
// the engine and suggest/preview surfaces need.
type ReconcileConfig struct {
	DefaultNumResults     int // default_num_results
	WdAPIMaxSearchResults int // wd_api_max_search_results, upstream fan-out cap per call
	ValidationThreshold   int // validation_threshold, the auto-match score floor
	ImageProperties       []string
	FallbackImageURL      string
	FallbackImageAlt      string
	PreviewWidth          int
	PreviewHeight         int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	env := strings.TrimSpace(strings.ToLower(os.Getenv("ENVIRONMENT")))
	switch env {
	case "", "development", "dev", "test":
		LoadEnvFile(".env")
	default:
		if path := strings.TrimSpace(os.Getenv("ENV_FILE")); path != "" {
			LoadEnvFile(path)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			BaseURL:     getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ServiceName: getEnv("SERVICE_NAME", "Wikidata reconciliation service"),
		},
		Wikibase: WikibaseConfig{
			MediawikiEndpoint:    getEnv("WIKIBASE_MEDIAWIKI_ENDPOINT", "https://www.wikidata.org/w/api.php"),
			GraphQueryEndpoint:   getEnv("WIKIBASE_GRAPH_QUERY_ENDPOINT", "https://query.wikidata.org/sparql"),
			NamespaceID:          getEnvInt("WIKIBASE_NAMESPACE_ID", 0),
			NamespacePrefix:      getEnv("WIKIBASE_NAMESPACE_PREFIX", ""),
			IdentifierIRISpace:   getEnv("WIKIBASE_IDENTIFIER_IRI_SPACE", "http://www.wikidata.org/prop/direct/"),
			SchemaIRISpace:       getEnv("WIKIBASE_SCHEMA_IRI_SPACE", "http://www.wikidata.org/entity/"),
			QidPattern:           getEnv("WIKIBASE_QID_PATTERN", `^Q([0-9]+)$`),
			PidPattern:           getEnv("WIKIBASE_PID_PATTERN", `^P([0-9]+)$`),
			URLPattern:           getEnv("WIKIBASE_URL_PATTERN", "https://www.wikidata.org/wiki/%s"),
			DefaultTypeEntity:    getEnv("WIKIBASE_DEFAULT_TYPE_ENTITY", "Q35120"),
			TypePropertyPath:     getEnv("WIKIBASE_TYPE_PROPERTY_PATH", "P31/P279*"),
			PropertyForThisType:  getEnv("WIKIBASE_PROPERTY_FOR_THIS_TYPE", "P1963"),
			AvoidClassID:         getEnv("WIKIBASE_AVOID_CLASS_ID", "Q17442446"),
			UserAgent:            getEnv("WIKIBASE_USER_AGENT", "wdreconcile/1.0 (reconciliation service)"),
			AutodescribeEndpoint: getEnv("WIKIBASE_AUTODESCRIBE_ENDPOINT", ""),
		},
		Cache: CacheConfig{
			URI:       getEnv("CACHE_URI", ""),
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", "wdreconcile"),
		},
		Reconcile: ReconcileConfig{
			DefaultNumResults:     getEnvInt("RECONCILE_DEFAULT_NUM_RESULTS", 25),
			WdAPIMaxSearchResults: getEnvInt("RECONCILE_WD_API_MAX_SEARCH_RESULTS", 50),
			ValidationThreshold:   getEnvInt("RECONCILE_VALIDATION_THRESHOLD", 95),
			ImageProperties:       splitCSV(getEnv("RECONCILE_IMAGE_PROPERTIES", "P18")),
			FallbackImageURL:      getEnv("RECONCILE_FALLBACK_IMAGE_URL", ""),
			FallbackImageAlt:      getEnv("RECONCILE_FALLBACK_IMAGE_ALT", "no image available"),
			PreviewWidth:          getEnvInt("RECONCILE_PREVIEW_WIDTH", 300),
			PreviewHeight:         getEnvInt("RECONCILE_PREVIEW_HEIGHT", 100),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Wikibase.MediawikiEndpoint == "" {
		return Config{}, fmt.Errorf("WIKIBASE_MEDIAWIKI_ENDPOINT is required")
	}
	if cfg.Reconcile.ValidationThreshold <= 0 || cfg.Reconcile.ValidationThreshold > 100 {
		return Config{}, fmt.Errorf("RECONCILE_VALIDATION_THRESHOLD must be in (0,100], got %d", cfg.Reconcile.ValidationThreshold)
	}
	if cfg.Reconcile.WdAPIMaxSearchResults <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_WD_API_MAX_SEARCH_RESULTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadEnvFile loads environment variables from a .env file. It silently
// no-ops if the file doesn't exist.
func LoadEnvFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}
