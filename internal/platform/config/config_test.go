package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(RoleIdP, "")
	require.NoError(t, err)

	assert.Equal(t, RoleIdP, cfg.Role)
	assert.Equal(t, ":5002", cfg.Addr)
	assert.Equal(t, "v5", cfg.Backend.APIVersion)
	assert.Equal(t, DriverMemory, cfg.Store.Pending)
	assert.Equal(t, 2048, cfg.IdP.KeyBits)
	assert.Equal(t, 2*time.Second, cfg.Correlation.AwaitTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARTICIPANT_ADDR", ":7000")
	t.Setenv("PARTICIPANT_BACKEND_URL", "http://api:8080")
	t.Setenv("PARTICIPANT_AS_SERVICES", "bank_statement,customer_info")
	t.Setenv("PARTICIPANT_CORRELATION_AWAIT_TIMEOUT", "750ms")

	cfg, err := Load(RoleAS, "")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "http://api:8080", cfg.Backend.URL)
	assert.Equal(t, []string{"bank_statement", "customer_info"}, cfg.AS.Services)
	assert.Equal(t, 750*time.Millisecond, cfg.Correlation.AwaitTimeout)
}

func TestValidate(t *testing.T) {
	t.Run("redis store requires url", func(t *testing.T) {
		t.Setenv("PARTICIPANT_STORE_PENDING", DriverRedis)
		_, err := Load(RoleRP, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.url")
	})

	t.Run("unknown identity driver is rejected", func(t *testing.T) {
		t.Setenv("PARTICIPANT_STORE_IDENTITY", "sqlite")
		_, err := Load(RoleIdP, "")
		require.Error(t, err)
	})
}
