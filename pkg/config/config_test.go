package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "trims and skips blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "forty")
	t.Setenv("CFG_TEST_BOOL", "false")
	t.Setenv("CFG_TEST_DUR", "90s")
	t.Setenv("CFG_TEST_BAD_DUR", "-1s")

	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))
	assert.Equal(t, "x", EnvDefault("CFG_TEST_MISSING", "x"))
	assert.False(t, EnvBoolDefault("CFG_TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_BAD_DUR", time.Second))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ES_INDEX", "")
	t.Setenv("ADMIN_GATE_TTL", "")
	t.Setenv("CSRF_ENABLED", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("CORS_ORIGINS", "https://loja.example.com, https://admin.example.com")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.Equal(t, 8*time.Hour, cfg.AdminGateTTL)
	assert.True(t, cfg.CSRFEnabled)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, []string{"https://loja.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}
