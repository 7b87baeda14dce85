package config

import (
	"path/filepath"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, k := range []string{"DATA_DIR", "PORT", "EXPIRY_AMBER_DAYS", "GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_ALLOW_USER_ID", "API_AUTH_SECRET", "METRICS_DB_PATH"} {
			t.Setenv(k, "")
		}
		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DataDir != "/share/meal-planner" {
			t.Errorf("Expected default DataDir, got '%s'", cfg.DataDir)
		}
		if cfg.Port != 5005 {
			t.Errorf("Expected default port 5005, got %d", cfg.Port)
		}
		if cfg.ExpiryAmberDays != 3 {
			t.Errorf("Expected default amber window 3, got %d", cfg.ExpiryAmberDays)
		}
		if cfg.AssistantEnabled() {
			t.Error("Expected assistant disabled without GEMINI_API_KEY")
		}
		if cfg.TelegramEnabled() {
			t.Error("Expected telegram disabled without token")
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DATA_DIR", "/tmp/meals")
		t.Setenv("PORT", "8080")
		t.Setenv("EXPIRY_AMBER_DAYS", "5")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_BOT_TOKEN", "bot_token")
		t.Setenv("TELEGRAM_ALLOW_USER_ID", "12345")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DataDir != "/tmp/meals" {
			t.Errorf("Expected DataDir '/tmp/meals', got '%s'", cfg.DataDir)
		}
		if cfg.Port != 8080 {
			t.Errorf("Expected port 8080, got %d", cfg.Port)
		}
		if cfg.ExpiryAmberDays != 5 {
			t.Errorf("Expected amber window 5, got %d", cfg.ExpiryAmberDays)
		}
		if !cfg.AssistantEnabled() {
			t.Error("Expected assistant enabled")
		}
		if !cfg.TelegramEnabled() {
			t.Error("Expected telegram enabled")
		}
		if cfg.TelegramAllowUserID != 12345 {
			t.Errorf("Expected allow user id 12345, got %d", cfg.TelegramAllowUserID)
		}
	})

	t.Run("MetricsPathFollowsDataDir", func(t *testing.T) {
		t.Setenv("DATA_DIR", "/tmp/meals")
		t.Setenv("METRICS_DB_PATH", "")
		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := filepath.Join("/tmp/meals", "metrics.db")
		if cfg.MetricsDBPath != want {
			t.Errorf("Expected metrics path '%s', got '%s'", want, cfg.MetricsDBPath)
		}
	})

	t.Run("InvalidPort", func(t *testing.T) {
		t.Setenv("PORT", "nope")
		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid PORT, got nil")
		}
	})

	t.Run("InvalidAmberDays", func(t *testing.T) {
		t.Setenv("EXPIRY_AMBER_DAYS", "-1")
		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for negative amber window, got nil")
		}
	})
}
