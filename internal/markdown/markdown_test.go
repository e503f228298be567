package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	html, err := ToHTML("# Cross-Site Scripting\n\nFound in `search.php`.")
	if err != nil {
		t.Fatalf("rendering failed: %v", err)
	}
	if !strings.Contains(html, "<h1>Cross-Site Scripting</h1>") {
		t.Errorf("expected a heading, got %q", html)
	}
	if !strings.Contains(html, "<code>search.php</code>") {
		t.Errorf("expected inline code, got %q", html)
	}
}

func TestToHTMLTable(t *testing.T) {
	html, err := ToHTML("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("rendering failed: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected GFM tables enabled, got %q", html)
	}
}
