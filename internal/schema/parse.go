package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawSchema is the subset of JSON Schema read by Parse.
type rawSchema struct {
	Type        json.RawMessage `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Default     json.RawMessage `json:"default"`
	Enum        []any           `json:"enum"`
	Format      string          `json:"format"`
	Minimum     *float64        `json:"minimum"`
	Maximum     *float64        `json:"maximum"`
	Properties  json.RawMessage `json:"properties"`
	Items       json.RawMessage `json:"items"`
	Required    []string        `json:"required"`
	UI          struct {
		Widget string `json:"widget"`
	} `json:"ui"`
	UIWidget string `json:"ui:widget"`
}

// Parse builds the node tree of a JSON schema document.
func Parse(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrInvalidSchema
	}
	return parseNode(data)
}

func parseNode(data json.RawMessage) (Node, error) {
	var rs rawSchema
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	meta := Meta{
		Title:       rs.Title,
		Description: rs.Description,
		Widget:      rs.UI.Widget,
	}
	if meta.Widget == "" {
		meta.Widget = rs.UIWidget
	}
	if len(rs.Default) > 0 {
		if err := json.Unmarshal(rs.Default, &meta.Default); err != nil {
			return nil, fmt.Errorf("%w: default: %w", ErrInvalidSchema, err)
		}
	}

	typ := schemaType(rs.Type)

	switch {
	case meta.Widget == WidgetJSONEditor:
		return &Raw{Meta: meta, Type: typ, Schema: data}, nil
	case len(rs.Enum) > 0:
		return &Enum{Meta: meta, Values: rs.Enum}, nil
	}

	switch typ {
	case "object":
		if len(rs.Properties) == 0 {
			return &Raw{Meta: meta, Type: typ, Schema: data}, nil
		}
		props, err := parseProperties(rs.Properties)
		if err != nil {
			return nil, err
		}
		return &Object{Meta: meta, Properties: props, Required: rs.Required}, nil
	case "string":
		return &String{Meta: meta, Format: rs.Format}, nil
	case "number", "integer":
		return &Number{Meta: meta, Integer: typ == "integer", Minimum: rs.Minimum, Maximum: rs.Maximum}, nil
	case "boolean":
		return &Boolean{Meta: meta}, nil
	case "array":
		arr := &Array{Meta: meta}
		if len(rs.Items) > 0 && rs.Items[0] == '{' {
			items, err := parseNode(rs.Items)
			if err != nil {
				return nil, err
			}
			arr.Items = items
		}
		return arr, nil
	default:
		return &Raw{Meta: meta, Type: typ, Schema: data}, nil
	}
}

// schemaType reads "type", which is either a string or a list such as
// ["string", "null"]. The first non-null entry wins.
func schemaType(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, t := range list {
			if t != "null" {
				return t
			}
		}
	}
	return ""
}

// parseProperties decodes the properties object keeping key order,
// which encoding/json maps do not.
func parseProperties(raw json.RawMessage) ([]Property, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: properties: %w", ErrInvalidSchema, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: properties must be an object", ErrInvalidSchema)
	}

	var props []Property
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: properties: %w", ErrInvalidSchema, err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: property name must be a string", ErrInvalidSchema)
		}

		var child json.RawMessage
		if err := dec.Decode(&child); err != nil {
			return nil, fmt.Errorf("%w: property %s: %w", ErrInvalidSchema, name, err)
		}
		node, err := parseNode(child)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		props = append(props, Property{Name: name, Node: node})
	}
	return props, nil
}
