package cmd

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fnErr := fn()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), fnErr
}

func TestModelsCommand_PrintsBannerAndCatalog(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return ModelsCommand().Run(context.Background(), []string{"models"})
	})
	require.NoError(t, err)

	assert.Contains(t, out, "COMMAND THE FLEET", "branding banner precedes the table")
	assert.Contains(t, out, "claude-sonnet-4-5-20250929")
	assert.Contains(t, out, "(fallback)")
}
