package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:             "db.internal",
		Port:             5433,
		User:             "finvoice",
		Password:         "secret",
		DBName:           "finvoice",
		SSLMode:          "require",
		StatementTimeout: 10 * time.Second,
	}

	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=finvoice")
	assert.Contains(t, dsn, "sslmode=require")
	// startup parameter in milliseconds, applied to every connection
	assert.Contains(t, dsn, "statement_timeout=10000")
}

func TestGetDSNWithoutStatementTimeout(t *testing.T) {
	cfg := PostgresConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "finvoice",
		DBName:  "finvoice",
		SSLMode: "disable",
	}
	assert.NotContains(t, cfg.GetDSN(), "statement_timeout")
}
