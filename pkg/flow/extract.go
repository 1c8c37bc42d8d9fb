package flow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a response path: an object key or an array index.
type segment struct {
	key   string
	index int
}

func key(k string) segment { return segment{key: k} }
func index(i int) segment  { return segment{index: i} }

func (s segment) isIndex() bool {
	return s.key == ""
}

// answerPath is outputs[0].outputs[0].results.message.data.text
var answerPath = []segment{
	key("outputs"), index(0),
	key("outputs"), index(0),
	key("results"),
	key("message"),
	key("data"),
	key("text"),
}

// ExtractText decodes a run flow response body and returns the answer text
// found at outputs[0].outputs[0].results.message.data.text.
//
// A body that is not a JSON object yields an *UnexpectedShapeError; a missing
// or malformed path segment yields a *ParseError.
func ExtractText(body []byte) (string, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", &UnexpectedShapeError{Kind: "invalid JSON", Cause: err}
	}

	if _, ok := root.(map[string]any); !ok {
		return "", &UnexpectedShapeError{Kind: jsonKind(root)}
	}

	var (
		path strings.Builder
		node = root
	)

	for _, seg := range answerPath {
		if seg.isIndex() {
			path.WriteString("[" + strconv.Itoa(seg.index) + "]")

			arr, ok := node.([]any)
			if !ok {
				return "", &ParseError{Path: path.String(), Reason: "expected array, got " + jsonKind(node)}
			}
			if seg.index >= len(arr) {
				return "", &ParseError{Path: path.String(), Reason: fmt.Sprintf("index out of range (len %d)", len(arr))}
			}
			node = arr[seg.index]
			continue
		}

		if path.Len() > 0 {
			path.WriteByte('.')
		}
		path.WriteString(seg.key)

		obj, ok := node.(map[string]any)
		if !ok {
			return "", &ParseError{Path: path.String(), Reason: "expected object, got " + jsonKind(node)}
		}
		next, ok := obj[seg.key]
		if !ok {
			return "", &ParseError{Path: path.String(), Reason: "key not found"}
		}
		node = next
	}

	text, ok := node.(string)
	if !ok {
		return "", &ParseError{Path: path.String(), Reason: "expected string, got " + jsonKind(node)}
	}

	return text, nil
}

// jsonKind names the JSON type of a value decoded into any.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
