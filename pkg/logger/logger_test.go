package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/placement-api/pkg/config"
)

func TestBuildConfigHonoursFormatAndLevel(t *testing.T) {
	cfg := &config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "debug", Format: "console"}}
	zapCfg := buildConfig(cfg)
	assert.Equal(t, "console", zapCfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, zapCfg.Level.Level())

	cfg.Log = config.LogConfig{Level: "nonsense"}
	zapCfg = buildConfig(cfg)
	assert.Equal(t, "json", zapCfg.Encoding)
	assert.Equal(t, zapcore.InfoLevel, zapCfg.Level.Level())
}

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	cfg := &config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("placement engine ready")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "placement engine ready")

	w := rotatingWriter(cfg.Log)
	assert.Equal(t, 1, w.MaxSize)
	assert.True(t, w.Compress)
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(ContextActorKey, "stu-1")
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "stu-1", entries[0].ContextMap()["actor"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}
