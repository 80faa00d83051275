package logbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Root: t.TempDir(),
		Now:  testTime,
	}
}

func TestWriter_DailyFileResolution(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	err := w.Write("hello", WriteOptions{})
	require.NoError(t, err)

	path := filepath.Join(cfg.Root, "LOG_DAILY_2025-10-28.log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-28 14:03:22,123 — INFO — hello\n", string(data))
}

func TestWriter_NamedLog(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	err := w.Write("cron ran", WriteOptions{LogName: "cron.log", Level: DEBUG})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Root, "cron.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG — cron ran")
}

func TestWriter_DirectoryOverride(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)
	override := filepath.Join(t.TempDir(), "nested", "logs")

	err := w.Write("elsewhere", WriteOptions{Dir: override, LogName: "special.log"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(override, "special.log"))
	assert.NoError(t, err)

	// Nothing lands under the default root.
	entries, err := os.ReadDir(cfg.Root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_AppendsWithoutTruncating(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	require.NoError(t, w.Write("first", WriteOptions{}))
	require.NoError(t, w.Write("second", WriteOptions{Level: WARN}))
	require.NoError(t, w.Write("third", WriteOptions{Tags: []string{"backup"}}))

	e := NewEngine(cfg)
	records, err := e.Query("", Criteria{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "first", records[0].Message)
	assert.Equal(t, "second", records[1].Message)
	assert.Equal(t, WARN, records[1].Level)
	assert.Equal(t, "third", records[2].Message)
	assert.Equal(t, []string{"backup"}, records[2].Tags)
}

func TestWriter_SequentialWritesPreserveOrder(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	messages := []string{"one", "two", "three", "four", "five"}
	for _, m := range messages {
		require.NoError(t, w.Write(m, WriteOptions{}))
	}

	records, err := NewEngine(cfg).Query("", Criteria{})
	require.NoError(t, err)
	require.Len(t, records, len(messages))
	for i, m := range messages {
		assert.Equal(t, m, records[i].Message)
	}
}

func TestWriter_StampsHostname(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hostname = "pi"
	w := NewWriter(cfg)

	require.NoError(t, w.Write("stamped", WriteOptions{Tags: []string{"net"}}))

	records, err := NewEngine(cfg).Query("", Criteria{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "pi", records[0].Host)
}

func TestWriter_WriteFailurePropagates(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := &Config{Root: blocker, Now: testTime}
	w := NewWriter(cfg)

	err := w.Write("doomed", WriteOptions{})
	require.Error(t, err)

	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestWriter_DefaultLevelIsInfo(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	require.NoError(t, w.Write("plain", WriteOptions{}))

	records, err := NewEngine(cfg).Query("", Criteria{Level: INFO})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDailyLogName(t *testing.T) {
	name := DailyLogName(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "LOG_DAILY_2025-01-02.log", name)
}
