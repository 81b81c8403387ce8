package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestJSONStoreMissingFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(map[string]string{KeyWhitelist: filepath.Join(dir, "whitelist.json")})

	got, err := s.Load(KeyWhitelist)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestJSONStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(map[string]string{KeyBlacklist: filepath.Join(dir, "nested", "blacklist.json")})

	require.NoError(t, s.Save(KeyBlacklist, []string{"OneDrive.exe", "YourPhone.exe"}))
	got, err := s.Load(KeyBlacklist)
	require.NoError(t, err)
	assert.Equal(t, []string{"OneDrive.exe", "YourPhone.exe"}, got)

	require.NoError(t, s.Save(KeyBlacklist, nil))
	got, err = s.Load(KeyBlacklist)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONStorePreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","user_defined_whitelist":["old.exe"]}`), 0o644))

	s := NewJSONStore(map[string]string{KeyWhitelist: path, KeyBlacklist: path})
	require.NoError(t, s.Save(KeyWhitelist, []string{"steam.exe"}))
	require.NoError(t, s.Save(KeyBlacklist, []string{"bloat.exe"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", gjson.GetBytes(data, "theme").String())

	wl, err := s.Load(KeyWhitelist)
	require.NoError(t, err)
	assert.Equal(t, []string{"steam.exe"}, wl)
	bl, err := s.Load(KeyBlacklist)
	require.NoError(t, err)
	assert.Equal(t, []string{"bloat.exe"}, bl)
}

func TestJSONStoreMissingKeyLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"other":[1,2]}`), 0o644))

	s := NewJSONStore(map[string]string{KeyWhitelist: path})
	got, err := s.Load(KeyWhitelist)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONStoreRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_defined_whitelist": [`), 0o644))

	s := NewJSONStore(map[string]string{KeyWhitelist: path})
	_, err := s.Load(KeyWhitelist)
	assert.Error(t, err)
}

func TestJSONStoreSaveKeepsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	broken := []byte(`{"user_defined_blacklist": ["a.exe"], "notes": `)
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	s := NewJSONStore(map[string]string{KeyWhitelist: path})
	err := s.Save(KeyWhitelist, []string{"steam.exe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, data)
}

func TestJSONStoreUnknownKey(t *testing.T) {
	s := NewJSONStore(nil)
	_, err := s.Load("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, s.Save("nope", nil), ErrUnknownKey)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "booster.db"))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(KeySelected)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(KeySelected, []string{"a.exe"}))
	require.NoError(t, s.Save(KeySelected, []string{"a.exe", "b.exe"}))

	got, err = s.Load(KeySelected)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.exe", "b.exe"}, got)
}

func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemory(nil)
	in := []string{"x"}
	require.NoError(t, m.Save(KeyWhitelist, in))
	in[0] = "mutated"

	got, err := m.Load(KeyWhitelist)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestLoadCritical(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	names, err := LoadCritical(write("ok.json", `{"critical_processes":["csrss.exe","","lsass.exe"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"csrss.exe", "lsass.exe"}, names)

	tests := map[string]string{
		"missing file": filepath.Join(dir, "absent.json"),
		"malformed":    write("bad.json", `{"critical_processes":`),
		"missing key":  write("nokey.json", `{"other":["x"]}`),
		"empty list":   write("empty.json", `{"critical_processes":[]}`),
		"wrong type":   write("type.json", `{"critical_processes":"csrss.exe"}`),
	}
	for name, path := range tests {
		_, err := LoadCritical(path)
		assert.Error(t, err, name)
	}
}
