package scraper

import (
	"strings"
	"testing"
)

func TestDocumentText(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantMarkup bool
		contains   []string
		excludes   []string
	}{
		{
			name:       "plain text unchanged",
			raw:        "1\tRyan Ruffer\n2\tJoey Benson",
			wantMarkup: false,
			contains:   []string{"1\tRyan Ruffer\n2\tJoey Benson"},
		},
		{
			name:       "pre blocks preferred",
			raw:        "<html><body><h1>Title</h1><pre>block one</pre><p>noise</p><pre>block two</pre></body></html>",
			wantMarkup: true,
			contains:   []string{"block one\nblock two"},
			excludes:   []string{"noise", "Title"},
		},
		{
			name:       "page text without pre",
			raw:        "<html><body><div>Varsity Boys</div><p>| 1 | | X Y | 9 | X | 18:00.00 | 1 |</p></body></html>",
			wantMarkup: true,
			contains:   []string{"Varsity Boys", "18:00.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("test", []byte(tt.raw))
			if got := doc.IsMarkup(); got != tt.wantMarkup {
				t.Errorf("IsMarkup() = %v, want %v", got, tt.wantMarkup)
			}
			text := doc.Text()
			for _, s := range tt.contains {
				if !strings.Contains(text, s) {
					t.Errorf("Text() = %q, missing %q", text, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(text, s) {
					t.Errorf("Text() = %q, should not contain %q", text, s)
				}
			}
		})
	}
}

func TestDocumentPreformatted(t *testing.T) {
	doc := NewDocument("test", []byte("<html><body><pre>first</pre><pre>second</pre></body></html>"))
	text, ok := doc.Preformatted()
	if !ok || text != "first" {
		t.Errorf("Preformatted() = (%q, %v), want (first, true)", text, ok)
	}

	doc = NewDocument("test", []byte("<html><body><table><tr><td>x</td></tr></table></body></html>"))
	if _, ok := doc.Preformatted(); ok {
		t.Error("Preformatted() on page without <pre> should be false")
	}

	doc = NewDocument("test", []byte("plain ==== text"))
	if _, ok := doc.Preformatted(); ok {
		t.Error("Preformatted() on plain text should be false")
	}
}

func TestLines(t *testing.T) {
	got := Lines("a\r\nb\nc")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Lines() = %q", got)
	}
}
