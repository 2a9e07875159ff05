package document

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("markdown and links from payload", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse(strings.NewReader(`{
			"markdown": "# Example",
			"links": ["https://example.com/a", 42, "https://example.com/b"],
			"metadata": {"url": "https://example.com", "title": "Example"}
		}`))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if doc.Markdown != "# Example" {
			t.Errorf("unexpected markdown %q", doc.Markdown)
		}
		want := []string{"https://example.com/a", "https://example.com/b"}
		if !reflect.DeepEqual(doc.Links, want) {
			t.Errorf("Links = %v, want %v", doc.Links, want)
		}
		if doc.Title() != "Example" || doc.URL() != "https://example.com" {
			t.Errorf("unexpected metadata %v", doc.Metadata)
		}
		if _, ok := doc.Raw["markdown"]; !ok {
			t.Error("raw payload should be kept")
		}
	})

	t.Run("links fall back to HTML anchors", func(t *testing.T) {
		t.Parallel()

		doc, err := ParseBytes([]byte(`{
			"html": "<html><body><a href=\"/docs\">Docs</a><a href=\"/docs#top\">Top</a><a href=\"mailto:a@example.com\">Mail</a><a href=\"https://other.example.org/\">Other</a><a href=\"#\">Self</a></body></html>",
			"metadata": {"url": "https://example.com/start"}
		}`))
		if err != nil {
			t.Fatalf("ParseBytes() error = %v", err)
		}
		want := []string{"https://example.com/docs", "https://other.example.org/"}
		if !reflect.DeepEqual(doc.Links, want) {
			t.Errorf("Links = %v, want %v", doc.Links, want)
		}
	})

	t.Run("empty payload object", func(t *testing.T) {
		t.Parallel()

		doc, err := ParseBytes([]byte(`{}`))
		if err != nil {
			t.Fatalf("ParseBytes() error = %v", err)
		}
		if doc.Markdown != "" || len(doc.Links) != 0 || doc.URL() != "" {
			t.Errorf("expected empty document, got %+v", doc)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()

		for _, in := range []string{"", "[]", "null", "<html></html>"} {
			if _, err := ParseBytes([]byte(in)); !errors.Is(err, ErrNotObject) {
				t.Errorf("ParseBytes(%q): expected ErrNotObject, got %v", in, err)
			}
		}
	})

	t.Run("broken JSON", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseBytes([]byte(`{"markdown": `)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	const page = `<a href="b.html">B</a><a href=" b.html ">B again</a><a href="javascript:void(0)">JS</a><a>none</a>`

	tests := []struct {
		name string
		base string
		want []string
	}{
		{name: "resolved against base", base: "https://example.com/dir/index.html", want: []string{"https://example.com/dir/b.html"}},
		{name: "relative kept without base", base: "", want: []string{"b.html"}},
		{name: "relative base is ignored", base: "/dir/", want: []string{"b.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractLinks(strings.NewReader(page), tt.base)
			if err != nil {
				t.Fatalf("ExtractLinks() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentJSON(t *testing.T) {
	t.Parallel()

	doc, err := ParseBytes([]byte(`{"markdown":"x"}`))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	out, err := doc.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if string(out) != "{\n  \"markdown\": \"x\"\n}" {
		t.Errorf("unexpected JSON %q", out)
	}
}
