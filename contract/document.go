package contract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/drblury/contractserver/jsonutil"
)

// Format identifies the textual syntax of a contract document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a parsed but unresolved contract source.
type Document struct {
	Path    string
	Format  Format
	Raw     []byte
	Content map[string]any
}

// LoadFunc reads and parses the document at path.
type LoadFunc func(ctx context.Context, path string) (*Document, error)

// Load reads the file at path and parses it as JSON or YAML. The format is
// taken from the file extension when it is conclusive and sniffed from the
// content otherwise.
func Load(ctx context.Context, path string) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(ErrRead, path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrRead, path, err)
	}

	doc, err := Parse(raw, DetectFormat(path, raw))
	if err != nil {
		return nil, newError(ErrParse, path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes raw in the given format. The root of the document must be an
// object.
func Parse(raw []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("document is empty")
	}

	var content map[string]any
	switch format {
	case FormatJSON:
		if err := jsonutil.Unmarshal(raw, &content); err != nil {
			return nil, err
		}
	default:
		format = FormatYAML
		if err := yaml.Unmarshal(raw, &content); err != nil {
			return nil, err
		}
	}

	if content == nil {
		return nil, errors.New("document root must be an object")
	}

	return &Document{
		Format:  format,
		Raw:     raw,
		Content: content,
	}, nil
}

// DetectFormat picks JSON or YAML for the document at path.
func DetectFormat(path string, raw []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}
