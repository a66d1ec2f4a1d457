package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
)

// maxRemoteDocument caps schema documents fetched over HTTP.
const maxRemoteDocument = 4 << 20

// Document wraps a raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, fmt.Errorf("schema: document %q is empty", src.Location())
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// ReadDocument fetches the document behind src. URL sources use client, or
// http.DefaultClient when client is nil.
func ReadDocument(ctx context.Context, src Source, client *http.Client) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		raw []byte
		err error
	)
	switch s := src.(type) {
	case fileSource:
		raw, err = os.ReadFile(s.path)
	case fsSource:
		if s.fsys == nil {
			return Document{}, errors.New("schema: filesystem is not configured")
		}
		raw, err = fs.ReadFile(s.fsys, s.name)
	case urlSource:
		raw, err = fetch(ctx, client, s.raw)
	default:
		return Document{}, fmt.Errorf("schema: cannot read %s source %q", src.Kind(), src.Location())
	}
	if err != nil {
		return Document{}, fmt.Errorf("schema: read %s: %w", src.Location(), err)
	}
	return NewDocument(src, raw)
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteDocument))
}
