// Package links recognizes wiki-style cross references and rewrites them into
// standard Markdown links.
//
// A link marker has one of four forms, all sharing the target prefix:
//
//	[[target]]                  -> [target](target.md)
//	[[target|text]]             -> [text](target.md)
//	[[target#Section]]          -> [target](target.md#section)
//	[[target#Section|text]]     -> [text](target.md#section)
//
// Markers are matched leftmost first and never overlap. Text outside a marker
// is copied unchanged, and markers that do not fit the grammar stay literal.
package links

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultExtension is appended to every link target.
const DefaultExtension = ".md"

// markerPattern is the grammar of a link marker:
//
//	"[[" target [ "#" section ] [ "|" display ] "]]"
//
// target and section exclude '#', '|' and ']'; display excludes ']', so the
// first closing bracket always ends the marker.
var markerPattern = regexp.MustCompile(`\[\[([^#|\]]+)(?:#([^#|\]]+))?(?:\|([^\]]+))?\]\]`)

// Reference is a link marker found in a text.
type Reference struct {
	Target     string `json:"target" yaml:"target"`
	Anchor     string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Display    string `json:"display,omitempty" yaml:"display,omitempty"`
	HasAnchor  bool   `json:"-" yaml:"-"`
	HasDisplay bool   `json:"-" yaml:"-"`

	// Start and End are the byte offsets of the whole marker.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Label returns the text shown for the link.
func (r Reference) Label() string {
	if r.HasDisplay {
		return r.Display
	}
	return r.Target
}

// Href returns the link destination using the given file extension.
func (r Reference) Href(ext string) string {
	href := r.Target + ext
	if r.HasAnchor {
		href += "#" + NormalizeAnchor(r.Anchor)
	}
	return href
}

// Markdown renders the reference as a standard Markdown link.
func (r Reference) Markdown(ext string) string {
	return "[" + r.Label() + "](" + r.Href(ext) + ")"
}

// NormalizeAnchor lowercases label and turns spaces and underscores into
// hyphens. Other characters are kept.
func NormalizeAnchor(label string) string {
	lower := cases.Lower(language.Und).String(label)
	return strings.NewReplacer(" ", "-", "_", "-").Replace(lower)
}

// Rewriter converts link markers to Markdown links.
type Rewriter struct {
	extension string
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithExtension sets the extension appended to link targets.
func WithExtension(ext string) Option {
	return func(r *Rewriter) {
		r.extension = ext
	}
}

// NewRewriter creates a rewriter. Without options targets get ".md".
func NewRewriter(opts ...Option) *Rewriter {
	r := &Rewriter{extension: DefaultExtension}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extension returns the extension appended to link targets.
func (r *Rewriter) Extension() string {
	return r.extension
}

// Rewrite replaces every link marker in text. Text without markers is
// returned as is.
func (r *Rewriter) Rewrite(text string) string {
	refs := Find(text)
	if len(refs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, ref := range refs {
		b.WriteString(text[last:ref.Start])
		b.WriteString(ref.Markdown(r.extension))
		last = ref.End
	}
	b.WriteString(text[last:])

	return b.String()
}

var defaultRewriter = NewRewriter()

// Rewrite replaces every link marker in text using the default extension.
func Rewrite(text string) string {
	return defaultRewriter.Rewrite(text)
}

// Find returns the link markers of text in order of appearance. Markers whose
// target is blank are skipped and stay literal.
func Find(text string) []Reference {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(text[m[2]:m[3]])
		if target == "" {
			continue
		}

		ref := Reference{
			Target: target,
			Start:  m[0],
			End:    m[1],
		}
		if m[4] >= 0 {
			ref.Anchor = strings.TrimSpace(text[m[4]:m[5]])
			ref.HasAnchor = true
		}
		if m[6] >= 0 {
			ref.Display = strings.TrimSpace(text[m[6]:m[7]])
			ref.HasDisplay = true
		}
		refs = append(refs, ref)
	}

	return refs
}
