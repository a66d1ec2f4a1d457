package schema

import (
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
)

// Source identifies where a schema document lives so Load can read files,
// fs.FS entries (embedded schemas), or URLs through one entry point.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindFS    SourceKind = "fs"
	SourceKindURL   SourceKind = "url"
	SourceKindBytes SourceKind = "bytes"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	fsys fs.FS
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying name inside fsys.
func SourceFromFS(fsys fs.FS, name string) Source {
	return fsSource{fsys: fsys, name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL parses the supplied URL string and returns a Source. It panics
// if the URL is invalid to surface configuration mistakes early.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("schema: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("schema: invalid URL %q: %v", raw, err))
	}
	return urlSource{raw: raw}
}

type bytesSource struct {
	name string
}

func (s bytesSource) Location() string { return s.name }
func (s bytesSource) Kind() SourceKind { return SourceKindBytes }

// SourceFromBytes labels an in-memory document, for error messages only.
func SourceFromBytes(name string) Source {
	if name == "" {
		name = "inline"
	}
	return bytesSource{name: name}
}
