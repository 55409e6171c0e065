package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LARDER_JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "larder.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "larder.db")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
	if cfg.ShoppingListCatalogSize != 1000 {
		t.Errorf("ShoppingListCatalogSize = %d, want 1000", cfg.ShoppingListCatalogSize)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("LARDER_JWT_SECRET", "")
	os.Unsetenv("LARDER_JWT_SECRET")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without LARDER_JWT_SECRET")
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("LARDER_JWT_SECRET", "from-env")
	os.Unsetenv("LARDER_PORT")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("LARDER_PORT=9090\nLARDER_NOTIFY_TIMEOUT=500ms\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LARDER_PORT")
		os.Unsetenv("LARDER_NOTIFY_TIMEOUT")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.NotifyTimeout != 500*time.Millisecond {
		t.Errorf("NotifyTimeout = %v, want 500ms", cfg.NotifyTimeout)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want existing env to win", cfg.JWTSecret)
	}
}

func TestLoadRejectsCatalogSize(t *testing.T) {
	for _, size := range []string{"0", "1001"} {
		t.Run(size, func(t *testing.T) {
			t.Setenv("LARDER_JWT_SECRET", "s3cret")
			t.Setenv("LARDER_SHOPPING_LIST_CATALOG_SIZE", size)

			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Fatalf("expected error for catalog size %s", size)
			}
		})
	}
}

func TestLoadAcceptsMaxCatalogSize(t *testing.T) {
	t.Setenv("LARDER_JWT_SECRET", "s3cret")
	t.Setenv("LARDER_SHOPPING_LIST_CATALOG_SIZE", "1000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShoppingListCatalogSize != 1000 {
		t.Errorf("ShoppingListCatalogSize = %d, want 1000", cfg.ShoppingListCatalogSize)
	}
	if cfg.LowQuantityThreshold != 1 {
		t.Errorf("LowQuantityThreshold = %d, want 1", cfg.LowQuantityThreshold)
	}
}

func TestLoadRejectsNegativeLowQuantityThreshold(t *testing.T) {
	t.Setenv("LARDER_JWT_SECRET", "s3cret")
	t.Setenv("LARDER_LOW_QUANTITY_THRESHOLD", "-1")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for a negative threshold")
	}
}
