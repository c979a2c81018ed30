package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMemoryDrivers(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("STORAGE_DRIVER", DriverMemory)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setMemoryDrivers(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2, cfg.ConversionWorkers)
	assert.Equal(t, 64, cfg.ConversionQueueSize)
	assert.Equal(t, 10*time.Minute, cfg.ConversionTimeout)
	assert.Equal(t, int64(256<<20), cfg.ArtifactCacheBytes)
	assert.Equal(t, time.Hour, cfg.ArtifactCacheTTL)
	assert.Equal(t, "IfcConvert", cfg.IfcConvertBin)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setMemoryDrivers(t)
	t.Setenv("STORAGE_PORT", "9000")
	t.Setenv("CONVERSION_WORKERS", "4")
	t.Setenv("CONVERSION_TIMEOUT", "90s")
	t.Setenv("CONVERSION_QUEUE_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 4, cfg.ConversionWorkers)
	assert.Equal(t, 90*time.Second, cfg.ConversionTimeout)
	assert.Equal(t, 64, cfg.ConversionQueueSize)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "postgres without host",
			env:  map[string]string{"DB_DRIVER": DriverPostgres, "STORAGE_DRIVER": DriverMemory},
			want: "database configuration is incomplete",
		},
		{
			name: "minio without credentials",
			env:  map[string]string{"DB_DRIVER": DriverMemory, "STORAGE_DRIVER": DriverMinio},
			want: "minio configuration is incomplete",
		},
		{
			name: "unknown db driver",
			env:  map[string]string{"DB_DRIVER": "mysql", "STORAGE_DRIVER": DriverMemory},
			want: "unsupported DB_DRIVER",
		},
		{
			name: "invalid minio ssl",
			env:  map[string]string{"DB_DRIVER": DriverMemory, "STORAGE_DRIVER": DriverMemory, "MINIO_SSL": "maybe"},
			want: "invalid MINIO_SSL value",
		},
		{
			name: "zero workers",
			env:  map[string]string{"DB_DRIVER": DriverMemory, "STORAGE_DRIVER": DriverMemory, "CONVERSION_WORKERS": "0"},
			want: "CONVERSION_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "ifc", DBSSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ifc sslmode=require", cfg.DSN())
}
