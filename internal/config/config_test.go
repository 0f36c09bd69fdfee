package config

import (
	"os"
	"testing"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		original, had := os.LookupEnv(k)
		if v == "" {
			_ = os.Unsetenv(k)
		} else {
			_ = os.Setenv(k, v)
		}
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, original)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT":                          "test",
		"WIKIBASE_MEDIAWIKI_ENDPOINT":          "",
		"RECONCILE_VALIDATION_THRESHOLD":       "",
		"RECONCILE_WD_API_MAX_SEARCH_RESULTS":  "",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Wikibase.MediawikiEndpoint == "" {
		t.Error("expected a default mediawiki endpoint")
	}
	if cfg.Reconcile.ValidationThreshold != 95 {
		t.Errorf("expected default validation threshold 95, got %d", cfg.Reconcile.ValidationThreshold)
	}
	if cfg.Reconcile.DefaultNumResults != 25 {
		t.Errorf("expected default_num_results 25, got %d", cfg.Reconcile.DefaultNumResults)
	}
	if cfg.Reconcile.WdAPIMaxSearchResults != 50 {
		t.Errorf("expected wd_api_max_search_results 50, got %d", cfg.Reconcile.WdAPIMaxSearchResults)
	}
}

func TestLoad_RejectsInvalidValidationThreshold(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT":                     "test",
		"RECONCILE_VALIDATION_THRESHOLD":  "150",
	})

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for an out-of-range validation threshold")
	}
}

func TestLoad_ImagePropertiesCSV(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT":                "test",
		"RECONCILE_IMAGE_PROPERTIES": "P18, P154 ,P94",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := []string{"P18", "P154", "P94"}
	if len(cfg.Reconcile.ImageProperties) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Reconcile.ImageProperties)
	}
	for i, p := range want {
		if cfg.Reconcile.ImageProperties[i] != p {
			t.Errorf("at %d: expected %q, got %q", i, p, cfg.Reconcile.ImageProperties[i])
		}
	}
}

func TestLoad_CacheURIOptional(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "test",
		"CACHE_URI":   "",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Cache.URI != "" {
		t.Errorf("expected empty cache URI to mean in-memory only, got %q", cfg.Cache.URI)
	}
	if cfg.Cache.KeyPrefix == "" {
		t.Error("expected a non-empty default cache key prefix")
	}
}
