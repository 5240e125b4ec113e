package cleaner

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
)

func mustCompile(css string) cascadia.Selector {
	sel, err := CompileSelector(css)
	if err != nil {
		panic(err)
	}
	return sel
}

const reactPage = `<!doctype html>
<html><head><title>  Installation –
 React </title></head>
<body>
  <nav>Learn React</nav>
  <article>
    <h1>Installation</h1>
    <script>window.track("x")</script>
    <style>h1 { color: red }</style>
    <p>React has been designed from the start
    for gradual adoption.</p>
    <noscript>enable js</noscript>
  </article>
  <article>second</article>
</body></html>`

const awsPage = `<html><body>
  <div class="awsdocs-page"><div class="awsdocs-container main">
    <h1>Example apps</h1><p>File processing</p>
  </div></div>
</body></html>`

func TestFindContainer_Article(t *testing.T) {
	c, found, err := FindContainer(reactPage, mustCompile("article"))
	if err != nil {
		t.Fatalf("FindContainer: %v", err)
	}
	if !found {
		t.Fatal("article not found")
	}

	got := NormalizeText(c.Text)
	want := "Installation React has been designed from the start for gradual adoption."
	if got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	for _, leaked := range []string{"track", "color", "enable js", "second", "Learn React"} {
		if strings.Contains(c.Text, leaked) {
			t.Errorf("container text leaked %q: %q", leaked, c.Text)
		}
	}
	if !strings.HasPrefix(c.HTML, "<article>") || strings.Contains(c.HTML, "<script>") {
		t.Errorf("unexpected container HTML: %q", c.HTML)
	}
}

func TestFindContainer_ClassDiv(t *testing.T) {
	c, found, err := FindContainer(awsPage, mustCompile("div.awsdocs-container"))
	if err != nil || !found {
		t.Fatalf("FindContainer: found=%v err=%v", found, err)
	}
	if got := CollapseWhitespace(c.Text); got != "Example apps File processing" {
		t.Errorf("text = %q", got)
	}
}

func TestFindContainer_BlockSeparators(t *testing.T) {
	page := `<main><h2>Hooks</h2><ul><li>Call <code>useState</code> at the top</li><li>Not in loops</li></ul>` +
		`<table><tr><td>a</td><td>b</td></tr></table>line<br>break</main>`
	c, found, err := FindContainer(page, mustCompile("main"))
	if err != nil || !found {
		t.Fatalf("FindContainer: found=%v err=%v", found, err)
	}
	want := "Hooks Call useState at the top Not in loops a b line break"
	if got := CollapseWhitespace(c.Text); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestFindContainer_Missing(t *testing.T) {
	c, found, err := FindContainer(awsPage, mustCompile("article"))
	if err != nil {
		t.Fatalf("missing container must not be an error, got %v", err)
	}
	if found {
		t.Error("found should be false")
	}
	if c != (Container{}) {
		t.Errorf("container should be zero, got %+v", c)
	}
}

func TestCompileSelector(t *testing.T) {
	if _, err := CompileSelector("div.awsdocs-container"); err != nil {
		t.Errorf("valid selector rejected: %v", err)
	}
	for _, bad := range []string{"", "   ", "div[", "::"} {
		if _, err := CompileSelector(bad); err == nil {
			t.Errorf("CompileSelector(%q) should fail", bad)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abc", 1},
		{"abcdef", 2},
		{"日本語の文章", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
