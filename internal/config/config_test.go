package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("MIDTRANS_SERVER_KEY", "server-key")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 10*time.Second, cfg.ProcessorTimeout)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 3*time.Second, cfg.EventPublishTimeout)
	assert.Equal(t, "log", cfg.NotifyTransport)
	assert.True(t, cfg.AdminCompleteAdjustsStock)
}

func TestFromViperRequiresSecrets(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "MIDTRANS_SERVER_KEY")
}

func TestFromViperRejectsBadChoices(t *testing.T) {
	_, err := FromViper(newViper(map[string]any{"DB_DRIVER": "mysql"}))
	assert.ErrorContains(t, err, "DB_DRIVER")

	_, err = FromViper(newViper(map[string]any{"NOTIFY_TRANSPORT": "resend"}))
	assert.ErrorContains(t, err, "RESEND_API_KEY")

	_, err = FromViper(newViper(map[string]any{"NOTIFY_TRANSPORT": "amqp"}))
	assert.ErrorContains(t, err, "RABBITMQ_URL")

	_, err = FromViper(newViper(map[string]any{"EVENT_PUBLISH_TIMEOUT": "0s"}))
	assert.ErrorContains(t, err, "EVENT_PUBLISH_TIMEOUT")
}
