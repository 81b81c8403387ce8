package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONStore keeps each list as a top-level array in a JSON document. Several
// keys may share one file; saving a key leaves the other keys untouched.
type JSONStore struct {
	mu    sync.Mutex
	paths map[string]string
}

// NewJSONStore maps document keys to file paths.
func NewJSONStore(paths map[string]string) *JSONStore {
	p := make(map[string]string, len(paths))
	for k, v := range paths {
		p[k] = v
	}
	return &JSONStore{paths: p}
}

// Path returns the file backing key.
func (s *JSONStore) Path(key string) (string, bool) {
	p, ok := s.paths[key]
	return p, ok
}

// Load implements Store.
func (s *JSONStore) Load(key string) ([]string, error) {
	path, ok := s.paths[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decodeList(data, key, path)
}

// Save implements Store.
func (s *JSONStore) Save(key string, values []string) error {
	path, ok := s.paths[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if values == nil {
		values = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(doc) == 0 {
		doc = []byte("{}")
	} else if !gjson.ValidBytes(doc) {
		return fmt.Errorf("parse %s: invalid JSON", path)
	}

	doc, err = sjson.SetBytes(doc, gjson.Escape(key), values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return writeAtomic(path, pretty.Pretty(doc))
}

func decodeList(data []byte, key, path string) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse %s: invalid JSON", path)
	}
	res := gjson.GetBytes(data, gjson.Escape(key))
	if !res.Exists() || res.Type == gjson.Null {
		return []string{}, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("parse %s: %s is not a list", path, key)
	}
	out := make([]string, 0, len(res.Array()))
	for _, v := range res.Array() {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("parse %s: %s holds a non-string entry", path, key)
		}
		out = append(out, v.String())
	}
	return out, nil
}

// writeAtomic replaces path so concurrent readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
