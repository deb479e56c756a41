package text

import (
	"fmt"
	"os"

	"github.com/dshills/treewright/internal/charset"
	"github.com/dshills/treewright/internal/tree"
)

// Parser builds text documents from raw bytes. It detects byte-order
// marks, decodes to UTF-8, and records the checksum of the raw input.
// It is not a language parser; content stays unstructured.
type Parser struct {
	assumed charset.Charset
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithAssumedCharset makes the parser decode input with cs when no
// byte-order mark says otherwise. The default assumption is UTF-8.
func WithAssumedCharset(cs charset.Charset) ParserOption {
	return func(p *Parser) {
		p.assumed = cs
	}
}

// NewParser returns a parser with the given options applied.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{assumed: charset.UTF8}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseBytes builds a document from raw content at a logical path. The
// checksum digests the raw bytes, mark included, so peers can compare
// against the on-disk form.
func (p *Parser) ParseBytes(sourcePath string, data []byte) (*Document, error) {
	sum := tree.SHA256Checksum(data)
	cs, marked, rest := charset.DetectBOM(data)
	if !marked {
		cs = p.assumed
	}
	content, err := cs.Decode(rest)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourcePath, err)
	}
	return New(sourcePath, content).
		WithCharset(cs).
		WithBOM(marked).
		WithChecksum(&sum), nil
}

// ParseFile reads, stats, and parses the file at path, using path as
// the document's source path.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	doc, err := p.ParseBytes(path, data)
	if err != nil {
		return nil, err
	}
	return doc.WithAttributes(tree.AttributesFromFileInfo(info)), nil
}
