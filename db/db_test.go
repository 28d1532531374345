package db

import (
	"testing"

	"mcontrold/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnsupportedType(t *testing.T) {
	_, err := Open(config.Connection{Type: "oracle", Host: "somewhere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestOpenRequiresSQLitePath(t *testing.T) {
	_, err := Open(config.Connection{Type: "sqlite"})
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.Connection{
		Type:     "mysql",
		Host:     "database",
		Port:     3306,
		User:     "mcontrol",
		Password: "secret",
		Database: "annadb",
	})
	assert.Equal(t, "mcontrol:secret@tcp(database:3306)/annadb?parseTime=true", dsn)
}
