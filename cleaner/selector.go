package cleaner

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// CompileSelector compiles a CSS selector for container lookup. The result
// satisfies goquery.Matcher.
func CompileSelector(css string) (cascadia.Selector, error) {
	if strings.TrimSpace(css) == "" {
		return nil, fmt.Errorf("empty selector")
	}
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", css, err)
	}
	return sel, nil
}
