package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "graylog", Name: "shares"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=graylog dbname=shares sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.example.com port=6543 user=user dbname=db password=pass search_path=public sslmode=require", dsn)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "graylog", Name: "shares"})
	require.NoError(t, err)
	require.Equal(t, "graylog@tcp(127.0.0.1:3306)/shares?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify", "loc": "Local"},
	})
	require.NoError(t, err)
	require.Equal(t, "user:secret@tcp(db.example.com:3307)/db?charset=utf8mb4&loc=Local&parseTime=True&tls=skip-verify", dsn)
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)

	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestBuildDSNOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://x"})
	require.NoError(t, err)
	require.Equal(t, "postgres://x", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?_busy_timeout=5000&_foreign_keys=1&cache=shared", dsn)

	dsn, err = sqliteDSN(Config{DSN: "file:custom.db"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)

	dir := t.TempDir()
	dsn, err = sqliteDSN(Config{Path: dir + "/data/shares.sqlite", Options: map[string]string{"_busy_timeout": "100"}})
	require.NoError(t, err)
	require.Contains(t, dsn, "/data/shares.sqlite?")
	require.Contains(t, dsn, "_busy_timeout=100")
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.DirExists(t, dir+"/data")
}
