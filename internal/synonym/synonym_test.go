package synonym

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookup(t *testing.T) {
	tbl := Default()

	assert.Equal(t, "silk", tbl.Lookup("pattu"))
	assert.Equal(t, "saree", tbl.Lookup("sari"))
	assert.Equal(t, "wedding", tbl.Lookup("bridal"))
	assert.Equal(t, "silk", tbl.Lookup("silk"), "canonical tokens pass through")
	assert.Equal(t, "velvet", tbl.Lookup("velvet"), "unknown tokens pass through")
	assert.Positive(t, tbl.Len())
}

func TestNew(t *testing.T) {
	tbl, err := New(map[string]string{" Pattu ": "SILK"})
	require.NoError(t, err)
	assert.Equal(t, "silk", tbl.Lookup("pattu"))

	tests := []struct {
		name  string
		pairs map[string]string
	}{
		{name: "expands to two tokens", pairs: map[string]string{"banarasi": "banaras silk"}},
		{name: "collapses two tokens", pairs: map[string]string{"pure silk": "silk"}},
		{name: "empty target", pairs: map[string]string{"x": " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pairs)
			require.ErrorIs(t, err, ErrMultiToken)
		})
	}
}

func TestLoad(t *testing.T) {
	tbl, err := Load(strings.NewReader("pattu: silk\nsari: saree\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = Load(strings.NewReader("- not\n- a map\n"))
	require.Error(t, err)
}
