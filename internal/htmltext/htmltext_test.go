package htmltext_test

import (
	"testing"

	"github.com/FranksOps/linkedscrap/internal/htmltext"
	"github.com/stretchr/testify/require"
)

func detailOptions() htmltext.Options {
	return htmltext.Options{
		WordWrap:                0,
		UppercaseHeadings:       false,
		SingleNewlineParagraphs: true,
		UnorderedListItemPrefix: "",
	}
}

func TestConvertParagraphs(t *testing.T) {
	in := "<p>Hello   <b>world</b></p><p>Second\n  paragraph</p>"

	out, err := htmltext.Convert(in, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "Hello world\nSecond paragraph", out)

	out, err = htmltext.Convert(in, htmltext.Options{})
	require.NoError(t, err)
	require.Equal(t, "Hello world\n\nSecond paragraph", out)
}

func TestConvertHeadings(t *testing.T) {
	in := "<h2>About the role</h2><p>Build things</p>"

	out, err := htmltext.Convert(in, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "About the role\nBuild things", out)

	out, err = htmltext.Convert(in, htmltext.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "ABOUT THE ROLE\n\nBuild things", out)
}

func TestConvertLists(t *testing.T) {
	in := "<ul><li>Go</li><li>Kubernetes</li></ul>"

	out, err := htmltext.Convert(in, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "Go\nKubernetes", out)

	out, err = htmltext.Convert(in, htmltext.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, " * Go\n * Kubernetes", out)

	out, err = htmltext.Convert("<ol><li>first</li><li>second</li></ol>", detailOptions())
	require.NoError(t, err)
	require.Equal(t, " 1. first\n 2. second", out)
}

func TestConvertLinks(t *testing.T) {
	in := `<p>See <a href="https://example.com/apply">apply here</a>.</p>`

	out, err := htmltext.Convert(in, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "See apply here [https://example.com/apply].", out)

	opts := detailOptions()
	opts.IgnoreHref = true
	out, err = htmltext.Convert(in, opts)
	require.NoError(t, err)
	require.Equal(t, "See apply here.", out)

	out, err = htmltext.Convert(`<a href="https://example.com">https://example.com</a>`, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "https://example.com", out)
}

func TestConvertLineBreaksAndSkippedElements(t *testing.T) {
	out, err := htmltext.Convert("Line one<br>Line two<script>var x = 1;</script><style>p{}</style>", detailOptions())
	require.NoError(t, err)
	require.Equal(t, "Line one\nLine two", out)
}

func TestConvertWordWrap(t *testing.T) {
	opts := detailOptions()
	opts.WordWrap = 10

	out, err := htmltext.Convert("<p>aaa bbb ccc ddd</p>", opts)
	require.NoError(t, err)
	require.Equal(t, "aaa bbb\nccc ddd", out)
}

func TestConvertJobDescription(t *testing.T) {
	in := `<div class="show-more-less-html__markup">
		<p><strong>About</strong></p>
		<ul>
			<li>Go</li>
			<li>Postgres</li>
		</ul>
	</div>`

	out, err := htmltext.Convert(in, detailOptions())
	require.NoError(t, err)
	require.Equal(t, "About\nGo\nPostgres", out)
}
