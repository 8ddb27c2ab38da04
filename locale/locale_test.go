package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty header", header: "", want: Default},
		{name: "single supported", header: "en", want: English},
		{name: "region subtag", header: "en-US,en;q=0.9", want: English},
		{name: "quality ordering", header: "en;q=0.5,ar;q=0.8", want: Arabic},
		{name: "unsupported falls through", header: "fr-FR,de;q=0.9,ku;q=0.1", want: Kurdish},
		{name: "nothing supported", header: "fr,de", want: Default},
		{name: "uppercase", header: "EN-GB", want: English},
		{name: "central kurdish alias", header: "ckb-IQ,en;q=0.3", want: Kurdish},
		{name: "malformed quality counts as one", header: "en;q=0.2,ku;q=abc", want: Kurdish},
		{name: "quality numeric prefix", header: "en;q=0.5,ku;q=0.8x,ar;q=0.6", want: Kurdish},
		{name: "quality trailing garbage below others", header: "ku;q=0.1y,en;q=0.3", want: English},
		{name: "stable for equal quality", header: "ku,en", want: Kurdish},
		{name: "wildcard ignored", header: "*,en;q=0.1", want: English},
		{name: "whitespace", header: "  fr ; q=0.9 , en ;q=0.8", want: English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.header))
		})
	}
}

func TestFromPath(t *testing.T) {
	loc, ok := FromPath("/ku/teahouse")
	assert.True(t, ok)
	assert.Equal(t, Kurdish, loc)

	loc, ok = FromPath("/en")
	assert.True(t, ok)
	assert.Equal(t, English, loc)

	_, ok = FromPath("/english")
	assert.False(t, ok)
	_, ok = FromPath("/")
	assert.False(t, ok)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "/ar", Prefix(Arabic, "/"))
	assert.Equal(t, "/en/candidates", Prefix(English, "/candidates"))
}

func TestDir(t *testing.T) {
	assert.Equal(t, "rtl", Dir(Arabic))
	assert.Equal(t, "rtl", Dir(Kurdish))
	assert.Equal(t, "ltr", Dir(English))
	assert.True(t, Supported(Kurdish))
	assert.False(t, Supported("fr"))
}

func TestQualityUsesNumericPrefix(t *testing.T) {
	cases := map[string]float64{
		"":      1,
		"0.8":   0.8,
		"0.8x":  0.8,
		" .5;":  0.5,
		"1e-1z": 0.1,
		"abc":   1,
	}
	for in, want := range cases {
		assert.InDelta(t, want, quality(in), 1e-9, "q=%q", in)
	}
}
