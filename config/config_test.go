package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	for _, key := range []string{"APPNAME", "APPPORT", "GRAPHQL_ENDPOINT", "GRAPHQL_TIMEOUT", "SESSION_STORE", "SESSION_TTL", "RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "Patient Console", cfg.AppName)
	assert.Equal(t, uint16(8080), cfg.AppPort)
	assert.Equal(t, DefaultGraphQLEndpoint, cfg.GraphQLEndpoint)
	assert.Zero(t, cfg.GraphQLTimeout)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 60, cfg.RateLimit)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	t.Setenv("APPNAME", "Clinic Console")
	t.Setenv("APPPORT", "19000")
	t.Setenv("GRAPHQL_ENDPOINT", "http://localhost:4000/graphql")
	t.Setenv("GRAPHQL_TIMEOUT", "1500ms")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL", "3600")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := LoadConfig()
	assert.Equal(t, "Clinic Console", cfg.AppName)
	assert.Equal(t, uint16(19000), cfg.AppPort)
	assert.Equal(t, "http://localhost:4000/graphql", cfg.GraphQLEndpoint)
	assert.Equal(t, 1500*time.Millisecond, cfg.GraphQLTimeout)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadConfig_IsSingleton(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)

	first := LoadConfig()
	t.Setenv("APPNAME", "changed after load")
	assert.Same(t, first, LoadConfig())
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, 3*time.Second, getEnvDuration("SOME_DURATION", 3*time.Second))
}

func TestConnectDatabase_TestEnv(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	t.Setenv("APPENV", "test")

	db, err := ConnectDatabase()
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestConnectDatabase_DisabledWithoutHost(t *testing.T) {
	ResetConfigForTest()
	t.Cleanup(ResetConfigForTest)
	t.Setenv("APPENV", "development")
	t.Setenv("DBHOST", "")

	db, err := ConnectDatabase()
	assert.NoError(t, err)
	assert.Nil(t, db)
}
