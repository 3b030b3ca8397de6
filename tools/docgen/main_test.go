package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{format: "markdown", want: []string{"keyword-tracker/keyword-tracker.md", "kwt/kwt.md", "kwt/kwt_tasks_create.md"}},
		{format: "man", want: []string{"keyword-tracker/keyword-tracker.1", "kwt/kwt-quota.1"}},
		{format: "yaml", want: []string{"kwt/kwt_estimate.yaml", "keyword-tracker/keyword-tracker_serve.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()

			n, err := generate(dir, tt.format)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			for _, f := range tt.want {
				_, err := os.Stat(filepath.Join(dir, f))
				assert.NoError(t, err, f)
			}
		})
	}
}

func TestGenerate_UnknownFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := generate(dir, "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "html"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
