// Package jsonutil decodes the loosely typed JSON that language models produce.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a raw JSON value to a string. Models often answer
// with numbers or booleans where a string was asked for. Returns "" for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return n.String()
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}

	return string(raw)
}

// FlexibleStringSlice accepts either a JSON array or a single scalar and returns
// the non-empty string values with duplicates removed, keeping first-seen order.
func FlexibleStringSlice(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		v := strings.TrimSpace(FlexibleStringValue(item))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// FlexibleStringMap decodes a JSON object whose values may be strings, numbers
// or booleans. Anything that is not an object yields an empty map.
func FlexibleStringMap(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for k, v := range fields {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = FlexibleStringValue(v)
	}
	return out
}
