package pipeline

import (
	"encoding/json"
	"strings"
)

// ExtractFileURL resolves the single file URL in an upload-provider
// response. Arrays use their first element. Within an element the
// lookup order is url, file.url, serverData.file.url.
func ExtractFileURL(descriptor any) (string, error) {
	if descriptor == nil {
		return "", &MalformedInputError{Field: "descriptor", Message: MsgNilDescriptor}
	}

	value, err := decodeDescriptor(descriptor)
	if err != nil {
		return "", &MalformedInputError{Field: "descriptor", Message: MsgMissingFileURL}
	}
	if value == nil {
		return "", &MalformedInputError{Field: "descriptor", Message: MsgNilDescriptor}
	}

	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return "", &MalformedInputError{Field: "url", Message: MsgMissingFileURL}
		}
		value = list[0]
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return "", &MalformedInputError{Field: "url", Message: MsgMissingFileURL}
	}

	for _, path := range [][]string{{"url"}, {"file", "url"}, {"serverData", "file", "url"}} {
		if u := lookupString(obj, path...); u != "" {
			return u, nil
		}
	}
	return "", &MalformedInputError{Field: "url", Message: MsgMissingFileURL}
}

// decodeDescriptor turns raw JSON or an arbitrary Go value into the
// generic shape produced by encoding/json.
func decodeDescriptor(descriptor any) (any, error) {
	var raw []byte
	switch d := descriptor.(type) {
	case json.RawMessage:
		raw = d
	case []byte:
		raw = d
	case string:
		raw = []byte(d)
	case map[string]any, []any:
		return d, nil
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func lookupString(obj map[string]any, path ...string) string {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}
	s, _ := cur.(string)
	return strings.TrimSpace(s)
}
