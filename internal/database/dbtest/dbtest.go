// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/robalyx/warden/internal/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var counter atomic.Int64

// Open returns a client for a fresh, fully migrated in-memory database.
// The database is closed when the test ends.
func Open(t *testing.T) database.Client {
	t.Helper()

	name := fmt.Sprintf("warden_test_%d", counter.Add(1))

	// A single connection keeps the shared-cache database alive and avoids
	// table lock contention between pooled connections
	client, err := database.Open(t.Context(), database.MemoryDSN(name), 1, zap.NewNop(), true)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
