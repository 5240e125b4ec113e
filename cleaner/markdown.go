package cleaner

import (
	"net/url"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownRenderer converts content containers to Markdown. It is safe for
// concurrent use and should be created once per run.
type MarkdownRenderer struct {
	conv     *converter.Converter
	readable bool
}

// MarkdownOptions configures a MarkdownRenderer.
type MarkdownOptions struct {
	// Readability runs each container through Readable before conversion.
	Readability bool
}

// NewMarkdownRenderer builds a renderer with CommonMark output and compact
// tables. The base plugin drops script, style and other non-content nodes.
func NewMarkdownRenderer(opts MarkdownOptions) *MarkdownRenderer {
	return &MarkdownRenderer{
		readable: opts.Readability,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Render converts an HTML fragment captured at pageURL. Relative links and
// images are resolved against the page's origin.
func (r *MarkdownRenderer) Render(fragment, pageURL string) (string, error) {
	if r.readable {
		fragment, _ = Readable(fragment, pageURL)
	}
	if domain := origin(pageURL); domain != "" {
		return r.conv.ConvertString(fragment, converter.WithDomain(domain))
	}
	return r.conv.ConvertString(fragment)
}

func origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
