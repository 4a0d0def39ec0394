package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quotesync/internal/model"
)

// FileFetcher reads the remote record set from a local file. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON.
type FileFetcher struct {
	Path string

	// Now stamps results. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Fetch implements engine.Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context) model.RemoteResult {
	now := time.Now().UTC()
	if f.Now != nil {
		now = f.Now()
	}

	if err := ctx.Err(); err != nil {
		return model.Failed(now, "fetch cancelled", err)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return model.Failed(now, "read remote file", err)
	}

	p, err := DecodeFile(f.Path, data)
	return toResult(now, p, err, f.Path)
}

// DecodeFile decodes data using the format implied by path's extension.
func DecodeFile(path string, data []byte) (Payload, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}

// DecodeYAML reads a YAML payload with the same shapes and rules as Decode.
func DecodeYAML(data []byte) (Payload, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeDocument(doc)
}
