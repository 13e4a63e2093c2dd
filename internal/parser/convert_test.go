package parser

import (
	"strings"
	"testing"
)

func TestCSVParser_Table(t *testing.T) {
	input := "name,kind\nv1,stable\nv2,beta|rc,extra\n"
	doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "releases.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# releases\n\n" +
		"| name | kind |\n" +
		"| --- | --- |\n" +
		"| v1 | stable |\n" +
		"| v2 | beta\\|rc |\n"
	if got := doc.Markdown(); got != want {
		t.Errorf("markdown mismatch:\nwant %q\ngot  %q", want, got)
	}
}

func TestHTMLParser_Headings(t *testing.T) {
	input := `<html><head><title>Install Guide</title></head><body>
<nav>skip me</nav>
<h1>Install</h1><p>Run   the
installer.</p>
<h2>Options</h2><ul><li>fast</li><li>safe</li></ul>
<pre>go build ./...</pre>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "install.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Install Guide" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	md := doc.Markdown()
	for _, want := range []string{"## Install", "Run the installer.", "### Options", "- fast", "```\ngo build ./...\n```"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, md)
		}
	}
	if strings.Contains(md, "skip me") {
		t.Errorf("nav content leaked into markdown:\n%s", md)
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.md", "a.MARKDOWN", "a.txt", "a.csv", "a.htm", "a.pdf", "a.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
	if _, err := ForFile("a.exe", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if !IsMarkdown("x.md") || IsMarkdown("x.txt") {
		t.Error("IsMarkdown misclassified")
	}
}
