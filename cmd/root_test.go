package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/summary-pipeline/internal/config"
)

func TestReadContentFromFile(t *testing.T) {
	path := t.TempDir() + "/content.txt"
	require.NoError(t, os.WriteFile(path, []byte("some article text"), 0644))

	summarizeFile = path
	t.Cleanup(func() { summarizeFile = "" })

	content, err := readContent()
	require.NoError(t, err)
	assert.Equal(t, "some article text", content)
}

func TestReadContentMissingFile(t *testing.T) {
	summarizeFile = t.TempDir() + "/does-not-exist.txt"
	t.Cleanup(func() { summarizeFile = "" })

	_, err := readContent()
	require.Error(t, err)
}

func TestInitRawSinkUnknownDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "oracle"}}
	t.Cleanup(func() { cfg = nil })

	_, err := initRawSink(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitRawSinkNone(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "none"}}
	t.Cleanup(func() { cfg = nil })

	sink, err := initRawSink(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sink)
}
