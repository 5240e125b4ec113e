package cleaner

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minReadableLength is the shortest readability text accepted. Anything
// shorter means the algorithm missed the content and the container is used
// as it is.
const minReadableLength = 50

// Readable narrows a content container to its main article with Mozilla's
// Readability algorithm, dropping in-page chrome such as feedback widgets
// and "on this page" menus. ok is false when the container is returned
// unchanged.
func Readable(fragment, pageURL string) (content string, ok bool) {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return fragment, false
	}

	article, err := readability.FromReader(strings.NewReader(fragment), u)
	if err != nil {
		return fragment, false
	}
	if len(strings.TrimSpace(article.TextContent)) < minReadableLength {
		return fragment, false
	}
	return article.Content, true
}
