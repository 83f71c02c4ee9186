package contentapi

import (
	"bytes"
	"encoding/json"
)

type listResult[T any] struct {
	items []T
	total int
	page  int
	limit int
}

type listEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// decodeList accepts either a JSON array or a {data: [...]} envelope.
// A missing or null data field yields an empty, non-nil slice.
func decodeList[T any](body []byte) (listResult[T], error) {
	trimmed := bytes.TrimSpace(body)
	var out listResult[T]
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		out.items = []T{}
		return out, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out.items); err != nil {
			return out, err
		}
		if out.items == nil {
			out.items = []T{}
		}
		return out, nil
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return out, err
	}
	out.total, out.page, out.limit = env.Total, env.Page, env.Limit
	if isNull(env.Data) {
		out.items = []T{}
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out.items); err != nil {
		return out, err
	}
	if out.items == nil {
		out.items = []T{}
	}
	return out, nil
}

// decodeObject accepts either the object itself or {data: object}.
func decodeObject(body []byte, dst any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		if data, ok := obj["data"]; ok && !isNull(data) && !isFalsy(data) {
			return json.Unmarshal(data, dst)
		}
	}
	return json.Unmarshal(trimmed, dst)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// isFalsy matches the scalar values a loose "data || body" check skips over.
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "false", "0", `""`:
		return true
	}
	return false
}
