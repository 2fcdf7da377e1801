package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulor/notifier/pkg/render"
)

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()

	p := render.Params{
		Subject:    "Weekly digest",
		Message:    "Hello!\nRead more at https://example.com/digest\nSee you next week.",
		ButtonText: "Open digest",
	}

	first := render.Render(p)
	second := render.Render(p)

	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Buttons, second.Buttons)
}

func TestRender_SingleURL(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject: "Hi",
		Message: "See https://example.com/x",
	})

	require.Len(t, out.Buttons, 1)
	assert.Equal(t, render.DefaultButtonLabel, out.Buttons[0].Label)
	assert.Equal(t, "https://example.com/x", out.Buttons[0].URL)

	assert.NotContains(t, out.HTML, ">https://example.com/x<",
		"raw URL must not appear as paragraph text")
	assert.Contains(t, out.HTML, `href="https://example.com/x"`)
	assert.Equal(t, 1, strings.Count(out.HTML, "Click here"))
}

func TestRender_NoURLs(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject: "Plain",
		Message: "Nothing to click on here.",
	})

	assert.Empty(t, out.Buttons)
	assert.NotContains(t, out.HTML, "href=")
	assert.Contains(t, out.HTML, "Nothing to click on here.")
}

func TestRender_CustomButtonText(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject:    "Hi",
		Message:    "Confirm at https://example.com/confirm",
		ButtonText: "Confirm account",
	})

	require.Len(t, out.Buttons, 1)
	assert.Equal(t, "Confirm account", out.Buttons[0].Label)
	assert.Contains(t, out.HTML, ">Confirm account</a>")
}

func TestRender_MultipleURLsGetNumberedLabels(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject:    "Links",
		Message:    "First https://a.example.com then https://b.example.com and www.c.example.com",
		ButtonText: "Start here",
	})

	require.Len(t, out.Buttons, 3)
	assert.Equal(t, "Start here", out.Buttons[0].Label)
	assert.Equal(t, "Click here (2)", out.Buttons[1].Label)
	assert.Equal(t, "Click here (3)", out.Buttons[2].Label)
	assert.Equal(t, "https://www.c.example.com", out.Buttons[2].URL,
		"bare www. links get a scheme on the button href")
}

func TestRender_ParagraphSplitting(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject: "Multi",
		Message: "Line one\n\nLine two\n   \nLine three",
	})

	assert.Equal(t, 3, strings.Count(out.HTML, "<p "))
	assert.Contains(t, out.HTML, "Line one")
	assert.Contains(t, out.HTML, "Line two")
	assert.Contains(t, out.HTML, "Line three")
}

func TestRender_EscapesUserContent(t *testing.T) {
	t.Parallel()

	out := render.Render(render.Params{
		Subject: `<script>alert("x")</script>`,
		Message: "a < b & c > d",
	})

	assert.NotContains(t, out.HTML, "<script>")
	assert.Contains(t, out.HTML, "a &lt; b &amp; c &gt; d")
}

func TestRender_TextBodyKeepsOriginalMessage(t *testing.T) {
	t.Parallel()

	msg := "See https://example.com/x for details"
	out := render.Render(render.Params{Subject: "Hi", Message: msg})

	assert.Equal(t, msg, out.Text,
		"plain-text part carries the message verbatim, links included")
}
