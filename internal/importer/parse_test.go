package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseError(t *testing.T, err error) *ParseError {
	t.Helper()
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	return pe
}

func TestParseDocument_JSON(t *testing.T) {
	doc, err := ParseDocument("config.json", []byte("\xef\xbb\xbf{\"version\": \"1.0.0\", \"sources\": []}"))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc["version"])
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		input    string
		wantLine int
		wantCol  int
	}{
		{"syntax error", "c.json", "{\"a\": 1,\n  \"b\": }", 2, 8},
		{"truncated", "c.json", "{\n\"a\": [1, 2", 2, 10},
		{"array root", "c.json", "[1]", 1, 1},
		{"indented scalar root", "c.json", "\n  true", 2, 3},
		{"empty", "c.json", "  \n ", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.file, []byte(tt.input))
			pe := parseError(t, err)
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.Equal(t, tt.wantCol, pe.Column)
			assert.NotEmpty(t, pe.Message)
		})
	}
}

func TestParseDocument_YAML(t *testing.T) {
	doc, err := ParseDocument("atlas.YAML", []byte(`
version: "1.0.0"
sources:
  - name: Rivers
    isActive: true
    data:
      url: https://example.com/rivers.geojson
      format: geojson
      zIndex: 110
`))
	require.NoError(t, err)

	src := doc["sources"].([]any)[0].(map[string]any)
	data := src["data"].(map[string]any)
	assert.Equal(t, float64(110), data["zIndex"], "numbers decode as in JSON")
	assert.Equal(t, true, src["isActive"])
}

func TestParseDocument_YAMLErrors(t *testing.T) {
	_, err := ParseDocument("c.yml", []byte("version: 1\nsources: [1, 2\n"))
	pe := parseError(t, err)
	assert.Greater(t, pe.Line, 0)

	_, err = ParseDocument("c.yml", []byte("- a\n- b\n"))
	pe = parseError(t, err)
	assert.Contains(t, pe.Message, "root must be an object")
}
