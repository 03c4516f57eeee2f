package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "capture")
	output, err := NewFilesystemOutput(dir, "run1-")
	require.NoError(t, err)

	output.Write("3", "---- REQUEST ----")
	contents, err := os.ReadFile(filepath.Join(dir, "run1-3.txt"))
	require.NoError(t, err)
	require.Equal(t, "---- REQUEST ----", string(contents))
}
