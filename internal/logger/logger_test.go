package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"
)

type stubConfig struct {
	level, output, file string
}

func (s stubConfig) GetLevel() string  { return s.level }
func (s stubConfig) GetOutput() string { return s.output }
func (s stubConfig) GetFile() string   { return s.file }

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel("warning"))
	assert.Equal(t, ERROR, ParseLogLevel("error"))
	assert.Equal(t, INFO, ParseLogLevel("nonsense"))
}

func TestSetupFileOutput(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	file := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Setup(stubConfig{level: "info", output: "file", file: file}))
	Info("written to %s", file)
	Sync()
	assert.FileExists(t, file)
}

func TestSetupFileOutputRequiresPath(t *testing.T) {
	err := Setup(stubConfig{level: "info", output: "file"})
	assert.Error(t, err)
}

func TestGormLoggerLevelMapping(t *testing.T) {
	assert.Equal(t, gormLogger.Info, NewGormLogger("debug").level)
	assert.Equal(t, gormLogger.Warn, NewGormLogger("info").level)
	assert.Equal(t, gormLogger.Error, NewGormLogger("error").level)

	silent := NewGormLogger("info").LogMode(gormLogger.Silent).(*GormLogger)
	assert.Equal(t, gormLogger.Silent, silent.level)
}
