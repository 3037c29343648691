package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/document"
	"gopkg.in/yaml.v3"
)

// ParseError is a malformed upload. Line and Column are 1-based and zero
// when the position could not be derived.
type ParseError struct {
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Offset  int64  `json:"offset,omitempty"`
	Message string `json:"message"`
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseDocument decodes an uploaded document. Files named *.yaml or *.yml
// are read as YAML, everything else as JSON. The root must be an object.
func ParseDocument(name string, data []byte) (document.Tree, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Message: "document is empty"}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	}
	return parseJSON(data)
}

func parseJSON(data []byte) (document.Tree, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, positioned(data, syntaxErr.Offset, syntaxErr.Error())
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, positioned(data, typeErr.Offset, typeErr.Error())
		}
		return nil, &ParseError{Message: err.Error()}
	}
	return rootObject(data, v)
}

func rootObject(data []byte, v any) (document.Tree, error) {
	doc, ok := document.Map(v)
	if !ok {
		start := int64(len(data) - len(bytes.TrimLeft(data, " \t\r\n")))
		return nil, positioned(data, start+1, "document root must be an object")
	}
	return doc, nil
}

// positioned converts a byte offset as reported by encoding/json, which
// points just past the offending byte, into a line and column.
func positioned(data []byte, offset int64, msg string) *ParseError {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := len(prefix) - (bytes.LastIndexByte(prefix, '\n') + 1)
	if col == 0 {
		col = 1
	}
	return &ParseError{Line: line, Column: col, Offset: offset, Message: msg}
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func parseYAML(data []byte) (document.Tree, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		pe := &ParseError{Message: err.Error()}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
			pe.Column = 1
		}
		return nil, pe
	}

	// Round trip through JSON so numbers and maps have the same Go types as
	// a JSON upload.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("YAML document is not representable as JSON: %v", err)}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	doc, ok := document.Map(out)
	if !ok {
		return nil, &ParseError{Line: 1, Column: 1, Message: "document root must be an object"}
	}
	return doc, nil
}
