package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFileAndConsole(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "ragqa.log")
	var console bytes.Buffer

	require.NoError(t, Init(logPath, false, &console))
	t.Cleanup(func() { _ = Close() })

	log.Printf("index rebuilt: %d entries", 3)
	Debugf("hidden %s", "detail")
	require.NoError(t, Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "index rebuilt: 3 entries")
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, console.String(), "index rebuilt: 3 entries")
}

func TestDebugfWhenVerbose(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init("", true, &console))
	t.Cleanup(func() { _ = Close() })

	assert.True(t, Verbose())
	Debugf("batch %d encoded", 7)
	assert.Contains(t, console.String(), "debug: batch 7 encoded")
}

func TestInitWithoutWritersDiscards(t *testing.T) {
	var before bytes.Buffer
	log.SetOutput(&before)
	require.NoError(t, Init("", false, nil))
	t.Cleanup(func() { _ = Close() })

	log.Print("nobody hears this")
	assert.Empty(t, before.String())
}
