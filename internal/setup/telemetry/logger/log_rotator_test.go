package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robalyx/warden/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCappedWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")

	w, err := logger.NewLineCappedWriter(path, 3)
	require.NoError(t, err)
	defer w.Close()

	for i := range 6 {
		_, err := fmt.Fprintf(w, "line %d\n", i)
		require.NoError(t, err)
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, lines)

	// Writes after a trim keep appending to the new file
	_, err = fmt.Fprintln(w, "line 6")
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(content), "line 6\n"))
}
