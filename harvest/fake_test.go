package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/sites"
)

// fakePage serves canned markup. Clicking a locator whose Value is a key of
// pages moves to that page; any other locator is ELEMENT_NOT_FOUND.
type fakePage struct {
	root  string
	pages map[string]fakeDoc

	current  string
	onRoot   bool
	openErr  error
	backErr  error
	panicOn  string
	clickErr map[string]error

	openPanic bool
	backPanic bool

	opens    []string
	clicks   []string
	backs    int
	releases int
}

type fakeDoc struct {
	url  string
	html string
}

func (f *fakePage) Open(ctx context.Context, url string) error {
	f.opens = append(f.opens, url)
	if f.openPanic {
		panic("assignment to entry in nil map")
	}
	if f.openErr != nil {
		return f.openErr
	}
	f.current, f.onRoot = url, true
	return nil
}

func (f *fakePage) Click(ctx context.Context, loc sites.Locator) error {
	f.clicks = append(f.clicks, loc.Value)
	if err := ctx.Err(); err != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "canceled", err)
	}
	if err, ok := f.clickErr[loc.Value]; ok {
		return err
	}
	if !f.onRoot {
		return models.NewScrapeError(models.ErrCodeElementNotFound, "not on root", nil)
	}
	doc, ok := f.pages[loc.Value]
	if !ok {
		return models.NewScrapeError(models.ErrCodeElementNotFound, "element "+loc.String()+" not found", context.DeadlineExceeded)
	}
	f.current, f.onRoot = doc.url, false
	return nil
}

func (f *fakePage) Content(ctx context.Context) (string, string, error) {
	if f.panicOn != "" && f.current == f.panicOn {
		panic("renderer crashed")
	}
	for _, doc := range f.pages {
		if doc.url == f.current {
			return doc.html, doc.url, nil
		}
	}
	return "<html><body>root</body></html>", f.current, nil
}

func (f *fakePage) Back(ctx context.Context) error {
	f.backs++
	if f.backPanic {
		panic("history entry vanished")
	}
	if f.backErr != nil {
		return f.backErr
	}
	f.current, f.onRoot = f.root, true
	return nil
}

func (f *fakePage) Release() error {
	f.releases++
	return nil
}

// multiPage routes each site root to its own fakePage so one session can
// serve several sites.
type multiPage struct {
	byRoot  map[string]*fakePage
	active  *fakePage
	release int
}

func (m *multiPage) Open(ctx context.Context, url string) error {
	p, ok := m.byRoot[url]
	if !ok {
		return models.NewScrapeError(models.ErrCodeNavigation, "no such root "+url, nil)
	}
	m.active = p
	return p.Open(ctx, url)
}

func (m *multiPage) Click(ctx context.Context, loc sites.Locator) error {
	return m.active.Click(ctx, loc)
}

func (m *multiPage) Content(ctx context.Context) (string, string, error) {
	return m.active.Content(ctx)
}

func (m *multiPage) Back(ctx context.Context) error { return m.active.Back(ctx) }

func (m *multiPage) Release() error {
	m.release++
	return nil
}

// reactSite mirrors the built-in React entry with a local root.
func reactSite() (sites.Site, *fakePage) {
	site := sites.Site{
		Source:     models.SourceReact,
		Root:       "https://react.test/learn",
		Container:  "article",
		Normalizer: "generic",
	}
	page := &fakePage{root: site.Root, pages: map[string]fakeDoc{}}
	for _, title := range []string{"Installation", "Describing the UI", "Adding Interactivity", "Managing State", "Escape Hatches"} {
		site.Sections = append(site.Sections, sites.Section{Title: title, Locator: sites.LinkText(title)})
		page.pages[title] = fakeDoc{
			url:  "https://react.test/learn/" + slug(title),
			html: fmt.Sprintf("<html><body><nav>menu</nav><article><h1>%s</h1>\n<p>About %s.\\n More  text.</p></article></body></html>", title, title),
		}
	}
	return site, page
}

// awsSite mirrors the built-in AWS Lambda entry with a local root.
func awsSite() (sites.Site, *fakePage) {
	site := sites.Site{
		Source:     models.SourceAWSLambda,
		Root:       "https://aws.test/lambda/welcome.html",
		Container:  "div.awsdocs-container",
		Normalizer: "generic",
	}
	page := &fakePage{root: site.Root, pages: map[string]fakeDoc{}}
	for _, s := range []struct{ title, href string }{
		{"What is AWS Lambda?", "getting-started.html"},
		{"Example apps", "example-apps.html"},
	} {
		xpath := "//a[@href='" + s.href + "']"
		site.Sections = append(site.Sections, sites.Section{Title: s.title, Locator: sites.XPath(xpath)})
		page.pages[xpath] = fakeDoc{
			url:  "https://aws.test/lambda/" + s.href,
			html: `<div class="awsdocs-container"><h1>` + s.title + "</h1>\n<p>Lambda runs code.</p></div>",
		}
	}
	return site, page
}

func slug(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r == ' ':
			out = append(out, '-')
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

var errBoom = errors.New("boom")
