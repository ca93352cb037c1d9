package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

func TestHeuristicShouldPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold int
		resp      catalog.FetchResponse
		want      bool
	}{
		{
			name: "empty body",
			resp: catalog.FetchResponse{StatusCode: 200, Body: []byte("  \n")},
			want: true,
		},
		{
			name: "spa shell",
			resp: catalog.FetchResponse{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)},
			want: true,
		},
		{
			name: "server rendered course despite spa marker",
			resp: catalog.FetchResponse{
				StatusCode: 200,
				Body:       []byte(`<div id="__next"><div class="language-info">English</div></div>`),
			},
			want: false,
		},
		{
			name:      "script heavy small page",
			threshold: 1000,
			resp: catalog.FetchResponse{
				StatusCode: 200,
				Body:       []byte(`<html><script>var a=1;</script><p>t</p></html>`),
			},
			want: true,
		},
		{
			name:      "script heavy large page",
			threshold: 10,
			resp: catalog.FetchResponse{
				StatusCode: 200,
				Body:       []byte(`<html><script>var a=1;</script><p>t</p></html>`),
			},
			want: false,
		},
		{
			name: "plain page",
			resp: catalog.FetchResponse{StatusCode: 200, Body: []byte(`<html><p>` + strings.Repeat("x", 100) + `</p></html>`)},
			want: false,
		},
		{
			name: "non 200",
			resp: catalog.FetchResponse{StatusCode: 404, Body: []byte("")},
			want: false,
		},
		{
			name: "already headless",
			resp: catalog.FetchResponse{StatusCode: 200, UsedHeadless: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NewHeuristic(tt.threshold).ShouldPromote(tt.resp))
		})
	}
}

func TestNewHeuristicDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, defaultThreshold, NewHeuristic(0).BodyLengthThreshold)
	require.Equal(t, 500, NewHeuristic(500).BodyLengthThreshold)
}

func TestScriptShare(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, scriptShare(nil))
	require.Equal(t, 0, scriptShare([]byte("<p>no scripts</p>")))
	require.Equal(t, 100, scriptShare([]byte("<script>x</script>")))
	// Unterminated script counts to the end of the document.
	require.Equal(t, 50, scriptShare([]byte("<p>abcde</p><script>1234")))
}
