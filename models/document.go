package models

// Source identifies the documentation site a record was captured from.
type Source string

// Built-in sources.
const (
	SourceReact     Source = "react"
	SourceAWSLambda Source = "aws_lambda"
)

// Document is one scraped page section, the unit written to the output file.
type Document struct {
	// Title is the section label from the site catalog.
	Title string `json:"title"`

	// Source is the site identifier.
	Source Source `json:"source"`

	// URL is the page URL at the time of capture.
	URL string `json:"url"`

	// Sections holds the normalized text blocks. Currently always one.
	Sections []string `json:"sections"`

	// Markdown is the content container rendered as Markdown. Only set when
	// markdown rendering is enabled.
	Markdown string `json:"markdown,omitempty"`
}

// Emittable reports whether the record may be written: it must carry at
// least one section and no section may be empty.
func (d Document) Emittable() bool {
	if len(d.Sections) == 0 {
		return false
	}
	for _, s := range d.Sections {
		if s == "" {
			return false
		}
	}
	return true
}
