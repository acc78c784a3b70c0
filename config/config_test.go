package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.False(t, cfg.Server.TLS.Enabled)
				assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "hostel", cfg.Database.User)
				assert.Equal(t, DefaultPublicPaths, cfg.Auth.PublicPaths)
				assert.Equal(t, "hostelcare-api", cfg.Session.Issuer)
				assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
				assert.NotEmpty(t, cfg.Session.Secret)
				assert.False(t, cfg.Firebase.Enabled())
				assert.Equal(t, time.Hour, cfg.Firebase.JWKSCacheTTL)
			},
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":         "production",
				"SERVER_PORT":         "9000",
				"DATABASE_URL":        "postgres://u:p@db.internal:5433/hostel?sslmode=require",
				"SESSION_SECRET":      "s3cret",
				"FIREBASE_PROJECT_ID": "hostel-prod",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "s3cret", cfg.Session.Secret)
				assert.Equal(t, "hostel-prod", cfg.Firebase.ProjectID)
				assert.Equal(t, "host=db.internal port=5433 database=hostel", cfg.Database.LogString())
			},
		},
		{
			name: "lists are split and trimmed",
			envVars: map[string]string{
				"PUBLIC_PATHS":         "/api/health, /api/auth/login ,,",
				"CORS_ALLOWED_ORIGINS": "https://hostel.example.com",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"/api/health", "/api/auth/login"}, cfg.Auth.PublicPaths)
				assert.Equal(t, []string{"https://hostel.example.com"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
				"SESSION_TTL":          "2h",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
				assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
			},
		},
		{
			name: "credentials file enables firebase",
			envVars: map[string]string{
				"FIREBASE_CREDENTIALS_FILE": "/etc/hostel/firebase.json",
				"FIREBASE_WEB_API_KEY":      "web-key",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Firebase.Enabled())
				assert.Equal(t, "web-key", cfg.Firebase.WebAPIKey)
				assert.Equal(t, "https://identitytoolkit.googleapis.com/v1", cfg.Firebase.IdentityBaseURL)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "production without session secret",
			envVars: map[string]string{
				"ENVIRONMENT":         "production",
				"FIREBASE_PROJECT_ID": "hostel-prod",
			},
			wantErr: true,
		},
		{
			name: "production without firebase",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"SESSION_SECRET": "s3cret",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:   "development",
			Database:      DatabaseConfig{Host: "localhost", User: "user", Database: "db"},
			Session:       SessionConfig{Secret: "x", TTL: time.Hour},
			Observability: ObservabilityConfig{LogLevel: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid development config", mutate: func(*Config) {}},
		{name: "missing database host", mutate: func(c *Config) { c.Database.Host = "" }, errMsg: "database configuration required"},
		{name: "missing database user", mutate: func(c *Config) { c.Database.User = "" }, errMsg: "database user is required"},
		{name: "missing database name", mutate: func(c *Config) { c.Database.Database = "" }, errMsg: "database name is required"},
		{name: "connection string skips field checks", mutate: func(c *Config) {
			c.Database = DatabaseConfig{ConnectionString: "postgres://localhost/db"}
		}},
		{name: "zero session ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, errMsg: "session TTL"},
		{name: "missing log level", mutate: func(c *Config) { c.Observability.LogLevel = "" }, errMsg: "log level is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		want        bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable", cfg.DSN())
	assert.Equal(t, "host=localhost port=5432 database=testdb", cfg.LogString())

	cfg.ConnectionString = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"empty value", "", true, true},
		{"invalid bool", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_BOOL", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}
