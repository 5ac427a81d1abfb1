package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{name: "plain", markdown: "hello", want: "hello"},
		{name: "emphasis", markdown: "**bold** and *it*", want: "<b>bold</b> and <i>it</i>"},
		{name: "heading", markdown: "# Title\n\nbody", want: "<b>Title</b>\n\nbody"},
		{name: "paragraphs", markdown: "one\n\ntwo", want: "one\n\ntwo"},
		{name: "bullets", markdown: "- one\n- two", want: "• one\n• two"},
		{name: "numbered", markdown: "1. one\n2. two", want: "1. one\n2. two"},
		{name: "inline code", markdown: "run `go test`", want: "run <code>go test</code>"},
		{name: "escaping", markdown: "1 < 2 & 3", want: "1 &lt; 2 &amp; 3"},
		{name: "link", markdown: "[docs](https://example.com)", want: `<a href="https://example.com">docs</a>`},
		{name: "script dropped", markdown: "hi <script>alert(1)</script>", want: "hi"},
		{name: "unsupported tag unwrapped", markdown: "<div>inside</div>", want: "inside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTML(tt.markdown))
		})
	}
}

func TestToHTMLCodeBlock(t *testing.T) {
	got := ToHTML("```go\nif a < b {\n}\n```")

	assert.Contains(t, got, `<pre><code class="language-go">`)
	assert.Contains(t, got, "if a &lt; b {\n}")
	assert.Contains(t, got, "</code></pre>")
}
