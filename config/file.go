package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// FileStore reads parameters from a YAML document mapping parameter names to values.
// The URL may point at any location supported by afs (local path, file://, mem://, ...).
type FileStore struct {
	URL string
	fs  afs.Service
}

// NewFileStore creates a file backed store.
func NewFileStore(URL string) *FileStore {
	return &FileStore{URL: URL, fs: afs.New()}
}

// Parameters implements Store.
func (f *FileStore) Parameters(ctx context.Context, names []string) (map[string]string, error) {
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters from %s: %w", f.URL, err)
	}
	document := map[string]string{}
	if err = yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse parameters from %s: %w", f.URL, err)
	}
	ret := make(map[string]string, len(names))
	for _, name := range names {
		if value, ok := document[name]; ok {
			ret[name] = value
		}
	}
	return ret, nil
}
