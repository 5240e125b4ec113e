// Package sites describes the documentation sites a harvest visits: where
// each one starts, which links lead to the sections to capture and which
// element holds the content.
package sites

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/use-agent/docharvest/cleaner"
	"github.com/use-agent/docharvest/models"
)

// LocatorKind selects how a section link is found on the root page.
type LocatorKind string

const (
	// ByLinkText matches an <a> whose trimmed text equals the value.
	ByLinkText LocatorKind = "link_text"
	// ByXPath evaluates the value as an XPath expression.
	ByXPath LocatorKind = "xpath"
	// ByCSS evaluates the value as a CSS selector.
	ByCSS LocatorKind = "css"
)

// Locator finds the element to click for one section.
type Locator struct {
	Kind  LocatorKind
	Value string
}

func LinkText(text string) Locator { return Locator{Kind: ByLinkText, Value: text} }
func XPath(expr string) Locator    { return Locator{Kind: ByXPath, Value: expr} }
func CSS(sel string) Locator       { return Locator{Kind: ByCSS, Value: sel} }

func (l Locator) String() string {
	return string(l.Kind) + "=" + l.Value
}

// Section is one page to capture, reached from the site root.
type Section struct {
	Title   string
	Locator Locator
}

// Site is one documentation site.
type Site struct {
	Source models.Source

	// Root is the page every section link is clicked from.
	Root string

	// Container is the CSS selector of the element holding the content.
	Container string

	// Normalizer names the text normalizer (see cleaner.NormalizerByName).
	Normalizer string

	Sections []Section
}

// Default returns the built-in catalog: React first, then AWS Lambda.
func Default() []Site {
	return []Site{
		{
			Source:     models.SourceReact,
			Root:       "https://react.dev/learn",
			Container:  "article",
			Normalizer: cleaner.NormalizerGeneric,
			Sections: []Section{
				{Title: "Installation", Locator: LinkText("Installation")},
				{Title: "Describing the UI", Locator: LinkText("Describing the UI")},
				{Title: "Adding Interactivity", Locator: LinkText("Adding Interactivity")},
				{Title: "Managing State", Locator: LinkText("Managing State")},
				{Title: "Escape Hatches", Locator: LinkText("Escape Hatches")},
			},
		},
		{
			Source:     models.SourceAWSLambda,
			Root:       "https://docs.aws.amazon.com/lambda/latest/dg/welcome.html",
			Container:  "div.awsdocs-container",
			Normalizer: cleaner.NormalizerGeneric,
			Sections: []Section{
				{Title: "What is AWS Lambda?", Locator: XPath("//a[@href='getting-started.html']")},
				{Title: "Example apps", Locator: XPath("//a[@href='example-apps.html']")},
				{Title: "Building with TypeScript", Locator: XPath("//a[@href='lambda-typescript.html']")},
				{Title: "Integrating other services", Locator: XPath("//a[@href='lambda-services.html']")},
				{Title: "Code examples", Locator: XPath("//a[@href='service_code_examples.html']")},
			},
		},
	}
}

// Validate checks a catalog before any browser is started. All problems are
// reported together in one INVALID_CATALOG error.
func Validate(catalog []Site) error {
	if len(catalog) == 0 {
		return models.NewScrapeError(models.ErrCodeInvalidCatalog, "catalog has no sites", nil)
	}

	var errs []error
	seen := make(map[models.Source]bool, len(catalog))
	for i, s := range catalog {
		name := string(s.Source)
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			errs = append(errs, fmt.Errorf("site %s: empty source", name))
		} else if seen[s.Source] {
			errs = append(errs, fmt.Errorf("site %s: duplicate source", name))
		}
		seen[s.Source] = true

		if err := validateRoot(s.Root); err != nil {
			errs = append(errs, fmt.Errorf("site %s: %w", name, err))
		}
		if _, err := cleaner.CompileSelector(s.Container); err != nil {
			errs = append(errs, fmt.Errorf("site %s: container: %w", name, err))
		}
		if _, ok := cleaner.NormalizerByName(s.Normalizer); !ok {
			errs = append(errs, fmt.Errorf("site %s: unknown normalizer %q", name, s.Normalizer))
		}
		if len(s.Sections) == 0 {
			errs = append(errs, fmt.Errorf("site %s: no sections", name))
		}
		for j, sec := range s.Sections {
			if err := validateSection(sec); err != nil {
				errs = append(errs, fmt.Errorf("site %s: section #%d: %w", name, j, err))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return models.NewScrapeError(models.ErrCodeInvalidCatalog, "invalid site catalog", errors.Join(errs...))
}

func validateRoot(root string) error {
	u, err := url.Parse(root)
	if err != nil {
		return fmt.Errorf("root %q: %w", root, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("root %q: must be an absolute http(s) URL", root)
	}
	return nil
}

func validateSection(sec Section) error {
	if strings.TrimSpace(sec.Title) == "" {
		return errors.New("empty title")
	}
	if strings.TrimSpace(sec.Locator.Value) == "" {
		return fmt.Errorf("%q: empty locator", sec.Title)
	}
	switch sec.Locator.Kind {
	case ByLinkText, ByXPath:
		return nil
	case ByCSS:
		if _, err := cleaner.CompileSelector(sec.Locator.Value); err != nil {
			return fmt.Errorf("%q: %w", sec.Title, err)
		}
		return nil
	default:
		return fmt.Errorf("%q: unknown locator kind %q", sec.Title, sec.Locator.Kind)
	}
}
