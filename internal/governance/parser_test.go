package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trims whitespace", line: " a , b ,c ", want: []string{"a", "b", "c"}},
		{name: "quoted comma", line: `abc,"Red, Gold Saree",5`, want: []string{"abc", "Red, Gold Saree", "5"}},
		{name: "escaped quotes", line: `"6"" border",x`, want: []string{`6" border`, "x"}},
		{name: "empty fields", line: "a,,c,", want: []string{"a", "", "c", ""}},
		{name: "single field", line: "only", want: []string{"only"}},
		{name: "quoted empty", line: `"",b`, want: []string{"", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}

func TestParseDocument(t *testing.T) {
	raw := " handle , TITLE,Category\r\n\r\nabc,Red Saree,women-sarees\r\n\ndef,Blue Kurta,men-kurtas\n"

	doc, err := ParseDocument(raw)
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)

	assert.Equal(t, []string{"handle", "TITLE", "Category"}, doc.Header.Names())
	assert.True(t, doc.Header.Has("Title"))
	assert.False(t, doc.Header.Has("Price"))

	first := doc.Rows[0]
	assert.Equal(t, 3, first.Number, "blank lines keep source numbering")
	assert.Equal(t, "abc", first.Get("Handle"))
	assert.Equal(t, "women-sarees", first.Get("category"))
	assert.Empty(t, first.Get("Price"))

	assert.Equal(t, 5, doc.Rows[1].Number)
}

func TestParseDocument_ShortRow(t *testing.T) {
	doc, err := ParseDocument("Handle,Title,Price\nabc,Only Title\n")
	require.NoError(t, err)
	assert.Equal(t, "Only Title", doc.Rows[0].Get("Title"))
	assert.Empty(t, doc.Rows[0].Get("Price"))
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "empty", raw: "", wantErr: ErrEmptyDocument},
		{name: "whitespace only", raw: " \n\r\n ", wantErr: ErrEmptyDocument},
		{name: "header only", raw: "Handle,Title\n", wantErr: ErrNoDataRows},
		{name: "header and blank lines", raw: "Handle,Title\n\n\n", wantErr: ErrNoDataRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.raw)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
