package sites

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/use-agent/docharvest/cleaner"
	"github.com/use-agent/docharvest/models"
	yaml "gopkg.in/yaml.v3"
)

// catalogFile is the YAML schema of a site catalog override:
//
//	sites:
//	  - source: react
//	    root: https://react.dev/learn
//	    container: article
//	    normalizer: generic
//	    sections:
//	      - title: Installation
//	        link_text: Installation
//	      - title: Hooks
//	        xpath: //a[@href='/reference/react/hooks']
type catalogFile struct {
	Sites []siteEntry `yaml:"sites"`
}

type siteEntry struct {
	Source     string         `yaml:"source"`
	Root       string         `yaml:"root"`
	Container  string         `yaml:"container"`
	Normalizer string         `yaml:"normalizer"`
	Sections   []sectionEntry `yaml:"sections"`
}

// sectionEntry takes exactly one of link_text, xpath or css.
type sectionEntry struct {
	Title    string `yaml:"title"`
	LinkText string `yaml:"link_text"`
	XPath    string `yaml:"xpath"`
	CSS      string `yaml:"css"`
}

// LoadFile reads and validates a YAML catalog.
func LoadFile(path string) ([]Site, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidCatalog, "read catalog file", err)
	}
	return Parse(bytes.NewReader(b))
}

// Parse decodes a YAML catalog. Unknown keys are rejected. A site without a
// normalizer gets the generic one.
func Parse(r io.Reader) ([]Site, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			err = fmt.Errorf("empty document")
		}
		return nil, models.NewScrapeError(models.ErrCodeInvalidCatalog, "parse catalog", err)
	}

	catalog := make([]Site, 0, len(f.Sites))
	for _, e := range f.Sites {
		s := Site{
			Source:     models.Source(e.Source),
			Root:       e.Root,
			Container:  e.Container,
			Normalizer: e.Normalizer,
		}
		if s.Normalizer == "" {
			s.Normalizer = cleaner.NormalizerGeneric
		}
		for _, sec := range e.Sections {
			loc, err := sec.locator()
			if err != nil {
				return nil, models.NewScrapeError(models.ErrCodeInvalidCatalog,
					fmt.Sprintf("site %s: section %q", e.Source, sec.Title), err)
			}
			s.Sections = append(s.Sections, Section{Title: sec.Title, Locator: loc})
		}
		catalog = append(catalog, s)
	}

	if err := Validate(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (e sectionEntry) locator() (Locator, error) {
	var locs []Locator
	if e.LinkText != "" {
		locs = append(locs, LinkText(e.LinkText))
	}
	if e.XPath != "" {
		locs = append(locs, XPath(e.XPath))
	}
	if e.CSS != "" {
		locs = append(locs, CSS(e.CSS))
	}
	if len(locs) != 1 {
		return Locator{}, fmt.Errorf("need exactly one of link_text, xpath or css, got %d", len(locs))
	}
	return locs[0], nil
}
