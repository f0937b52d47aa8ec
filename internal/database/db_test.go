package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-summary-system/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestOpenMigratesModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "nested", "summary.db")

	db, err := Open(cfg, quietLogger())
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Record{}))
	assert.FileExists(t, cfg.DSN)
}

func TestOpenUnsupportedType(t *testing.T) {
	_, err := Open(&Config{Type: "oracle", DSN: "x"}, quietLogger())
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestSetupAndMustDB(t *testing.T) {
	original := DB
	defer func() { DB = original }()

	DB = nil
	assert.Panics(t, func() { MustDB() })

	err := Setup(&Config{Type: "sqlite", DSN: "file:setup_test?mode=memory"}, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, MustDB())
	assert.NoError(t, Close())
}
