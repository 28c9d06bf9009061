// Package preprocessor implements the mdBook preprocessor protocol: it reads
// the JSON request from mdBook, rewrites the book and writes the book back.
//
// mdBook sends either a two element array [context, book] or an object
// carrying the book under the "book" key. Only the book is written back.
package preprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/conneroisu/mdbook-wikilinks/internal/book"
	perrors "github.com/conneroisu/mdbook-wikilinks/internal/errors"
	"github.com/conneroisu/mdbook-wikilinks/internal/logging"
)

// Context is the part of the mdBook render context that is logged.
type Context struct {
	Root          string `json:"root"`
	Renderer      string `json:"renderer"`
	MdbookVersion string `json:"mdbook_version"`
}

// Envelope is a decoded request.
type Envelope struct {
	Context *Context
	Book    json.RawMessage
}

// ExtractBook returns the book payload of a request.
func ExtractBook(data []byte) (json.RawMessage, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return env.Book, nil
}

// DecodeEnvelope parses a request and selects the book payload. The context
// is decoded on a best-effort basis and is nil when it does not look like an
// object.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var top json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, perrors.NewParseError("failed to parse input", err)
	}

	trimmed := bytes.TrimSpace(top)
	if len(trimmed) == 0 {
		return nil, perrors.ErrInvalidShape("null")
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, perrors.NewParseError("failed to parse input array", err)
		}
		if len(elems) != 2 {
			return nil, perrors.ErrInvalidArity(len(elems))
		}
		return &Envelope{Context: decodeContext(elems[0]), Book: elems[1]}, nil

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, perrors.NewParseError("failed to parse input object", err)
		}
		payload, ok := fields["book"]
		if !ok {
			return nil, perrors.ErrInvalidShape("object without \"book\" key")
		}
		return &Envelope{Context: decodeContext(trimmed), Book: payload}, nil

	default:
		return nil, perrors.ErrInvalidShape(describe(trimmed))
	}
}

func decodeContext(raw json.RawMessage) *Context {
	var ctx Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil
	}
	return &ctx
}

func describe(raw []byte) string {
	switch raw[0] {
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// Preprocessor rewrites the chapters of a book.
type Preprocessor struct {
	rewriter book.ContentRewriter
	logger   logging.Logger
}

// New creates a preprocessor. A nil logger discards all output.
func New(rewriter book.ContentRewriter, logger logging.Logger) *Preprocessor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Preprocessor{
		rewriter: rewriter,
		logger:   logger.WithComponent("preprocessor"),
	}
}

// Process rewrites the book found in a request and returns the encoded book.
func (p *Preprocessor) Process(ctx context.Context, data []byte) ([]byte, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	if env.Context != nil {
		p.logger.Debug(ctx, "Received book",
			"renderer", env.Context.Renderer,
			"mdbook_version", env.Context.MdbookVersion,
			"root", env.Context.Root,
		)
	}

	var b book.Book
	if err := json.Unmarshal(env.Book, &b); err != nil {
		return nil, perrors.NewParseError("failed to decode book", err)
	}

	op := logging.StartOperation(p.logger, "rewrite_book")
	if err := book.RewriteBook(&b, p.rewriter); err != nil {
		return nil, err
	}
	op.End(ctx, "sections", len(b.Sections))

	out, err := book.Encode(&b)
	if err != nil {
		return nil, perrors.NewIOError("failed to encode book", err)
	}
	return out, nil
}

// Run reads a whole request from in, rewrites it and writes the book to out.
func (p *Preprocessor) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return perrors.NewIOError("failed to read input", err)
	}

	result, err := p.Process(ctx, data)
	if err != nil {
		return err
	}

	if _, err := out.Write(result); err != nil {
		return perrors.NewIOError("failed to write output", err)
	}
	return nil
}
