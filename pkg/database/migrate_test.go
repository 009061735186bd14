package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-ipcrf-api/pkg/config"
)

func TestMigrationFilesAreOrderedGooseFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, name := range files {
		assert.True(t, strings.HasSuffix(name, ".sql"), name)
		body, err := migrations.ReadFile(migrationsDir + "/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
		if i > 0 {
			assert.Less(t, files[i-1], name)
		}
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "school_ipcrf", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=school_ipcrf sslmode=disable", dsn)
}
