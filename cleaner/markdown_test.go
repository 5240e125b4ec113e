package cleaner

import (
	"strings"
	"testing"
)

func TestMarkdownRenderer_Render(t *testing.T) {
	r := NewMarkdownRenderer(MarkdownOptions{})

	fragment := `<article><h1>Managing State</h1>
<p>See <a href="/learn/reacting-to-input-with-state">reacting to input</a>.</p>
<script>alert(1)</script></article>`

	md, err := r.Render(fragment, "https://react.dev/learn/managing-state")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(md, "# Managing State") {
		t.Errorf("heading missing:\n%s", md)
	}
	if !strings.Contains(md, "(https://react.dev/learn/reacting-to-input-with-state)") {
		t.Errorf("relative link not resolved against origin:\n%s", md)
	}
	if strings.Contains(md, "alert") {
		t.Errorf("script leaked into markdown:\n%s", md)
	}
}

func TestOrigin(t *testing.T) {
	tests := map[string]string{
		"https://docs.aws.amazon.com/lambda/latest/dg/welcome.html": "https://docs.aws.amazon.com",
		"http://127.0.0.1:8080/x?y=1":                               "http://127.0.0.1:8080",
		"about:blank":                                               "",
		"":                                                          "",
	}
	for in, want := range tests {
		if got := origin(in); got != want {
			t.Errorf("origin(%q) = %q, want %q", in, got, want)
		}
	}
}

const awsContainer = `<div class="awsdocs-container">
<div id="feedback-widget"><a href="#">Did this page help you? Yes</a> <a href="#">No</a></div>
<article id="main-content">
<h1>What is AWS Lambda?</h1>
<p>Lambda is a compute service that runs your code without provisioning or managing servers.
Lambda runs your code on a high-availability compute infrastructure and performs all of the
administration of the compute resources.</p>
<p>You organize your code into Lambda functions. Lambda runs your function only when needed
and scales automatically, from a few requests per day to thousands per second.</p>
</article>
</div>`

func TestReadable(t *testing.T) {
	content, ok := Readable(awsContainer, "https://docs.aws.amazon.com/lambda/latest/dg/welcome.html")
	if !ok {
		t.Fatal("readability should accept a full article")
	}
	if !strings.Contains(content, "compute service") {
		t.Errorf("article text missing:\n%s", content)
	}

	short := `<div><p>Too short.</p></div>`
	if got, ok := Readable(short, "https://react.dev/learn"); ok || got != short {
		t.Errorf("short container should be returned unchanged, got ok=%v %q", ok, got)
	}
	if got, ok := Readable(short, "://bad"); ok || got != short {
		t.Errorf("bad URL should return the container unchanged, got ok=%v %q", ok, got)
	}
}

func TestMarkdownRenderer_Readability(t *testing.T) {
	r := NewMarkdownRenderer(MarkdownOptions{Readability: true})

	md, err := r.Render(awsContainer, "https://docs.aws.amazon.com/lambda/latest/dg/welcome.html")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(md, "compute service") {
		t.Errorf("article text missing:\n%s", md)
	}
}
