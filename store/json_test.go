package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenJSON_CreatesBlankSettings(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenJSON(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
	assert.Empty(t, s.RecoveredBackup)
}

func TestJSONStore_PutAndGetNestedPath(t *testing.T) {
	s, err := OpenJSON(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(50000, "person", "tyler", "salary"))

	got, err := s.Get("person", "tyler", "salary")
	require.NoError(t, err)
	assert.Equal(t, 50000, got)

	_, err = s.Get("person", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStore_PutPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenJSON(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("~/cabinet/log", "path", "log"))

	reopened, err := OpenJSON(dir)
	require.NoError(t, err)

	got, err := reopened.Get("path", "log")
	require.NoError(t, err)
	assert.Equal(t, "~/cabinet/log", got)
}

func TestJSONStore_PutMergesObjects(t *testing.T) {
	s, err := OpenJSON(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(map[string]any{"port": 465}, "email"))
	require.NoError(t, s.Put(map[string]any{"from": "pi@example.com"}, "email"))

	port, err := s.Get("email", "port")
	require.NoError(t, err)
	assert.Equal(t, 465, port)

	from, err := s.Get("email", "from")
	require.NoError(t, err)
	assert.Equal(t, "pi@example.com", from)
}

func TestJSONStore_PutThroughScalarFails(t *testing.T) {
	s, err := OpenJSON(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("a string", "key"))
	err = s.Put(1, "key", "nested")
	assert.Error(t, err)
}

func TestJSONStore_Remove(t *testing.T) {
	s, err := OpenJSON(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(true, "flags", "beta"))
	require.NoError(t, s.Remove("flags", "beta"))

	_, err = s.Get("flags", "beta")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Remove("flags", "beta")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenJSON_BacksUpCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{not json"), 0o644))

	s, err := OpenJSON(dir)
	require.NoError(t, err)
	require.NotEmpty(t, s.RecoveredBackup)

	backedUp, err := os.ReadFile(s.RecoveredBackup)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backedUp))

	// Fresh blank document after recovery.
	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestJSONStore_Export(t *testing.T) {
	s, err := OpenJSON(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put("value", "some", "key"))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, map[string]any{"some": map[string]any{"key": "value"}}, out)
}
