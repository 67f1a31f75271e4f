package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "uv-media", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "uv", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, StorageBackendLocal, cfg.Storage.Backend)
		assert.Equal(t, "./uploads", cfg.Storage.UploadDir)
		assert.Equal(t, "./uploads/audio", cfg.Storage.AudioDir)
		assert.Equal(t, "./uploads/images", cfg.Storage.ImageDir)
		assert.Equal(t, "./uploads/videos", cfg.Storage.VideoDir)
		assert.Equal(t, int64(10<<20), cfg.Storage.MaxImageSize)
		assert.Equal(t, int64(500<<20), cfg.Storage.MaxAudioSize)
		assert.Equal(t, int64(1<<30), cfg.Storage.MaxVideoSize)
		assert.True(t, cfg.Storage.ServeStatics)

		assert.True(t, cfg.OrphanSweep.Enabled)
		assert.Equal(t, "@daily", cfg.OrphanSweep.Schedule)
		assert.Equal(t, 7*24*time.Hour, cfg.OrphanSweep.Retention)
		assert.Equal(t, 500, cfg.OrphanSweep.BatchSize)

		assert.GreaterOrEqual(t, cfg.HTTP.MaxBodySize, cfg.Storage.MaxVideoSize)

		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.True(t, cfg.Telemetry.Insecure)
		assert.Equal(t, 30, cfg.HTTP.UploadRateLimit)
		assert.Equal(t, time.Minute, cfg.HTTP.UploadRateWindow)
	})

	t.Run("loads values from environment variables with UV prefix", func(t *testing.T) {
		t.Setenv("UV_APP_NAME", "test-app")
		t.Setenv("UV_APP_PORT", "9000")
		t.Setenv("UV_DATABASE_HOST", "testdb.local")
		t.Setenv("UV_DATABASE_PORT", "5433")
		t.Setenv("UV_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("UV_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("UV_STORAGE_AUDIO_DIR", "/srv/audio")
		t.Setenv("UV_STORAGE_MAX_AUDIO_SIZE", "1048576")
		t.Setenv("UV_ORPHAN_SWEEP_SCHEDULE", "0 3 * * *")
		t.Setenv("UV_ORPHAN_SWEEP_RETENTION", "48h")
		t.Setenv("UV_ORPHAN_SWEEP_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "/srv/audio", cfg.Storage.AudioDir)
		assert.Equal(t, int64(1<<20), cfg.Storage.MaxAudioSize)
		assert.Equal(t, "0 3 * * *", cfg.OrphanSweep.Schedule)
		assert.Equal(t, 48*time.Hour, cfg.OrphanSweep.Retention)
		assert.False(t, cfg.OrphanSweep.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("UV_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("UV_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		t.Setenv("UV_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects unknown storage backend", func(t *testing.T) {
		t.Setenv("UV_STORAGE_BACKEND", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend must be one of")
	})

	t.Run("s3 backend requires bucket and credentials", func(t *testing.T) {
		t.Setenv("UV_STORAGE_BACKEND", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket is required")

		t.Setenv("UV_STORAGE_BUCKET", "media")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access_key")

		t.Setenv("UV_STORAGE_ACCESS_KEY", "key")
		t.Setenv("UV_STORAGE_SECRET_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "media", cfg.Storage.Bucket)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
	})

	t.Run("body limit must fit the largest upload", func(t *testing.T) {
		t.Setenv("UV_HTTP_MAX_BODY_SIZE", "1024")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.max_body_size")
	})

	t.Run("upload rate window required when limit set", func(t *testing.T) {
		t.Setenv("UV_HTTP_UPLOAD_RATE_LIMIT", "10")
		t.Setenv("UV_HTTP_UPLOAD_RATE_WINDOW", "0s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.upload_rate_window")
	})

	t.Run("loads telemetry settings", func(t *testing.T) {
		t.Setenv("UV_TELEMETRY_ENABLED", "true")
		t.Setenv("UV_TELEMETRY_COLLECTOR_ENDPOINT", "otel:4317")
		t.Setenv("UV_TELEMETRY_SAMPLING_RATIO", "0.25")
		t.Setenv("UV_TELEMETRY_DB_TRACING", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otel:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
		assert.True(t, cfg.Telemetry.DBTracing)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("rejects sampling ratio outside 0..1", func(t *testing.T) {
		t.Setenv("UV_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("rejects retention shorter than an hour", func(t *testing.T) {
		t.Setenv("UV_ORPHAN_SWEEP_RETENTION", "5m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orphan_sweep.retention")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("UV_APP_ENV", "production")
		t.Setenv("UV_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("UV_DATABASE_PASSWORD", "secure-password")
		t.Setenv("UV_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("UV_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("UV_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("UV_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("UV_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects in-memory storage in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("UV_STORAGE_BACKEND", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend=memory")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestStorageConfig_MaxUploadSize(t *testing.T) {
	cfg := StorageConfig{MaxImageSize: 10, MaxAudioSize: 300, MaxVideoSize: 200}
	assert.Equal(t, int64(300), cfg.MaxUploadSize())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
