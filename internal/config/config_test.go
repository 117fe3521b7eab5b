package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gebeya.orders", cfg.KafkaTopic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
}

func TestLoadRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", devJWTSecret)
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cr3t-prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-prod", cfg.JWTSecret)
}

func TestDSN(t *testing.T) {
	c := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=disable", c.DSN())

	c.DBDSN = " postgres://x "
	assert.Equal(t, "postgres://x", c.DSN())
}

func TestIsDev(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "dev"}).IsDev())
	assert.False(t, (&Config{AppEnv: "production"}).IsDev())
}
