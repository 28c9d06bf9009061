package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/mdbook-wikilinks/internal/book"
	perrors "github.com/conneroisu/mdbook-wikilinks/internal/errors"
	"github.com/conneroisu/mdbook-wikilinks/internal/links"
	"github.com/conneroisu/mdbook-wikilinks/internal/preprocessor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var linksFormat string

var linksCmd = &cobra.Command{
	Use:   "links [file]",
	Short: "List the wiki links found in a book",
	Long: `Read an mdBook preprocessor request and list every wiki link marker per
chapter together with the Markdown link it is rewritten to. The book is
read from the given file, or from standard input when no file is given.

Examples:
  mdbook-wikilinks links request.json            # Table output
  mdbook-wikilinks links -f json < request.json  # JSON output
  mdbook-wikilinks links --format yaml request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)

	linksCmd.Flags().StringVarP(&linksFormat, "format", "f", "table", "Output format (table, json, yaml)")

	AddFlagValidation(linksCmd, "format", func(format string) error {
		return ValidateFormat(format, []string{"table", "json", "yaml"})
	})
}

// LinkEntry is one link marker found in a chapter.
type LinkEntry struct {
	Chapter string `json:"chapter" yaml:"chapter"`
	Marker  string `json:"marker" yaml:"marker"`
	Target  string `json:"target" yaml:"target"`
	Anchor  string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Label   string `json:"label" yaml:"label"`
	Href    string `json:"href" yaml:"href"`
}

func runLinks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadRuntime(cmd)
	handler := perrors.NewErrorHandler(logger)
	if err != nil {
		handler.Handle(ctx, err)
		return err
	}

	data, err := readLinksInput(cmd, args)
	if err != nil {
		handler.Handle(ctx, err)
		return err
	}

	entries, err := CollectLinks(data, cfg.Links.Extension)
	if err != nil {
		handler.Handle(ctx, err)
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(linksFormat) {
	case "json":
		return outputLinksJSON(out, entries)
	case "yaml":
		return outputLinksYAML(out, entries)
	default:
		return outputLinksTable(out, entries)
	}
}

func readLinksInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, perrors.NewIOError("failed to read "+args[0], err)
		}
		return data, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, perrors.NewIOError("failed to read input", err)
	}
	return data, nil
}

// CollectLinks lists the link markers of every chapter of the book carried
// by a preprocessor request, in document order.
func CollectLinks(data []byte, ext string) ([]LinkEntry, error) {
	payload, err := preprocessor.ExtractBook(data)
	if err != nil {
		return nil, err
	}

	var b book.Book
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, perrors.NewParseError("failed to decode book", err)
	}

	entries := []LinkEntry{}
	err = book.Walk(&b, func(path []string, ch *book.Chapter) error {
		if ch.Content == nil {
			return nil
		}
		content := *ch.Content
		for _, ref := range links.Find(content) {
			entries = append(entries, LinkEntry{
				Chapter: strings.Join(path, " > "),
				Marker:  content[ref.Start:ref.End],
				Target:  ref.Target,
				Anchor:  ref.Anchor,
				Label:   ref.Label(),
				Href:    ref.Href(ext),
			})
		}
		return nil
	})

	return entries, err
}

func outputLinksJSON(w io.Writer, entries []LinkEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(entries)
}

func outputLinksYAML(w io.Writer, entries []LinkEntry) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		return err
	}
	return encoder.Close()
}

func outputLinksTable(w io.Writer, entries []LinkEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No links found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAPTER\tMARKER\tLINK")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t[%s](%s)\n", e.Chapter, e.Marker, e.Label, e.Href)
	}
	return tw.Flush()
}
