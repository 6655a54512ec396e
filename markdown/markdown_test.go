package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/markdown"
)

func TestRender(t *testing.T) {
	t.Parallel()

	theme := parley.DefaultTheme()

	t.Run("empty input returns empty string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", markdown.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello world", 80, theme)
		assert.Contains(t, result, "hello world")
	})

	t.Run("zero width falls back to a sane default", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello world", 0, theme)
		assert.Contains(t, result, "hello world")
	})

	t.Run("heading content is preserved", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("# Title\n\nbody", 80, theme)
		assert.Contains(t, result, "Title")
		assert.Contains(t, result, "body")
	})

	t.Run("inline emphasis content is preserved", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("**bold** and *italic* and `code`", 80, theme)
		assert.Contains(t, result, "bold")
		assert.Contains(t, result, "italic")
		assert.Contains(t, result, "code")
	})

	t.Run("fenced code block is never reflowed", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"a rather long line of code\")\n```"
		result := markdown.Render(src, 10, theme)
		assert.Contains(t, result, `fmt.Println("a rather long line of code")`)
	})

	t.Run("fenced code block shows language label and gutter", func(t *testing.T) {
		t.Parallel()
		src := "```python\nprint('hi')\n```"
		result := markdown.Render(src, 80, theme)
		assert.Contains(t, result, "python")
		assert.Contains(t, result, "│ print('hi')")
	})

	t.Run("bullet list markers", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("- one\n- two", 80, theme)
		assert.Contains(t, result, "- one")
		assert.Contains(t, result, "- two")
	})

	t.Run("ordered list numbering honors start", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("3. three\n4. four", 80, theme)
		assert.Contains(t, result, "3. three")
		assert.Contains(t, result, "4. four")
	})

	t.Run("nested list is indented", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("- outer\n  - inner", 80, theme)
		assert.Contains(t, result, "- outer")
		assert.Contains(t, result, "  - inner")
	})

	t.Run("long paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		src := strings.Repeat("word ", 30)
		result := markdown.Render(src, 20, theme)
		for _, line := range strings.Split(result, "\n") {
			assert.LessOrEqual(t, len(line), 20)
		}
	})

	t.Run("link keeps text and destination", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("[docs](https://example.com)", 80, theme)
		assert.Contains(t, result, "docs")
		assert.Contains(t, result, "https://example.com")
	})

	t.Run("thematic break", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("a\n\n---\n\nb", 80, theme)
		assert.Contains(t, result, "---")
	})

	t.Run("no trailing newline", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello", 80, theme)
		assert.False(t, strings.HasSuffix(result, "\n"))
	})
}
