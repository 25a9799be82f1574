package config

import (
	"os"
	"strings"
	"testing"
)

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "fleet",
		Password: "secret",
		Name:     "fleet",
		SSLMode:  "disable",
	}
	dsn := db.GetDSN()

	expected := "host=localhost port=5432 user=fleet password=secret dbname=fleet sslmode=disable"
	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetDSNCustomValues(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "admin",
		Password: "p@ss",
		Name:     "mydb",
		SSLMode:  "require",
	}
	dsn := db.GetDSN()

	if !strings.Contains(dsn, "host=db.example.com") {
		t.Errorf("DSN missing host, got: %s", dsn)
	}
	if !strings.Contains(dsn, "port=5433") {
		t.Errorf("DSN missing port, got: %s", dsn)
	}
	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("DSN missing sslmode, got: %s", dsn)
	}
}

func TestCORSOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"wildcard", "*", []string{"*"}},
		{"single origin", "https://fleet.example.com", []string{"https://fleet.example.com"}},
		{"list with spaces", "https://a.example.com, https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{"trailing comma", "https://a.example.com,", []string{"https://a.example.com"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CORSConfig{AllowedOrigins: tt.raw}.Origins()
			if len(got) != len(tt.want) {
				t.Fatalf("Origins() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Origins()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		_, err := getIntEnv("TEST_INT_VAR", 8080)
		if err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

func TestGetFloatEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_FLOAT_VAR")
		got, err := getFloatEnv("TEST_FLOAT_VAR", 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 30 {
			t.Errorf("getFloatEnv() = %v, want %v", got, 30.0)
		}
	})

	t.Run("parses valid float", func(t *testing.T) {
		os.Setenv("TEST_FLOAT_VAR", "42.5")
		defer os.Unsetenv("TEST_FLOAT_VAR")
		got, err := getFloatEnv("TEST_FLOAT_VAR", 30)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 42.5 {
			t.Errorf("getFloatEnv() = %v, want %v", got, 42.5)
		}
	})

	t.Run("error on invalid float", func(t *testing.T) {
		os.Setenv("TEST_FLOAT_VAR", "not_float")
		defer os.Unsetenv("TEST_FLOAT_VAR")
		_, err := getFloatEnv("TEST_FLOAT_VAR", 30)
		if err == nil {
			t.Error("expected error for invalid float value")
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD",
		"DB_NAME", "DB_SSLMODE", "JWT_SECRET", "JWT_EXPIRY_HOURS",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"CORS_ALLOWED_ORIGINS", "PREDICTION_BASE_TIME_MIN",
		"PREDICTION_NEUTRAL_SPEED_KMH", "PREDICTION_ACCURATE_THRESHOLD",
	} {
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Errorf("JWT.ExpiryHours = %d, want 24", cfg.JWT.ExpiryHours)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
	if cfg.Prediction.DefaultBaseTimeMin != 30 {
		t.Errorf("Prediction.DefaultBaseTimeMin = %v, want 30", cfg.Prediction.DefaultBaseTimeMin)
	}
	if cfg.Prediction.NeutralSpeedKMH != 30 {
		t.Errorf("Prediction.NeutralSpeedKMH = %v, want 30", cfg.Prediction.NeutralSpeedKMH)
	}
	if cfg.Prediction.AccurateThreshold != 80 {
		t.Errorf("Prediction.AccurateThreshold = %v, want 80", cfg.Prediction.AccurateThreshold)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	os.Setenv("SERVER_PORT", "9999")
	os.Setenv("PREDICTION_BASE_TIME_MIN", "45")
	defer os.Unsetenv("SERVER_PORT")
	defer os.Unsetenv("PREDICTION_BASE_TIME_MIN")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Prediction.DefaultBaseTimeMin != 45 {
		t.Errorf("Prediction.DefaultBaseTimeMin = %v, want 45", cfg.Prediction.DefaultBaseTimeMin)
	}
}
