package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper/config"
)

func TestMongoURI(t *testing.T) {
	tests := []struct {
		dsn, db, want string
	}{
		{"mongodb://localhost:27017", "books", "mongodb://localhost:27017/books"},
		{"mongodb://localhost:27017/", "books", "mongodb://localhost:27017/books"},
		{"mongodb://localhost:27017/other", "books", "mongodb://localhost:27017/other"},
		{"mongodb://localhost:27017", "", "mongodb://localhost:27017"},
	}
	for _, tt := range tests {
		got, err := mongoURI(tt.dsn, tt.db)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.dsn)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Driver: "cassandra"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenStoreMemory(t *testing.T) {
	s, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
