package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// envelope is the object form of list responses. Some deployments return the
// bare array instead, so both are accepted.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// DecodeList maps a list response onto []T. It accepts a bare JSON array, an
// object with a "data" array, or an object whose "data" is a single record.
func DecodeList[T any](ep Endpoint, body []byte) ([]T, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return nil, &DecodeError{Endpoint: ep.Name, Err: errors.New("empty body")}
	}

	switch raw[0] {
	case '[':
	case '{':
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &DecodeError{Endpoint: ep.Name, Err: err}
		}
		if env.Data == nil {
			return nil, &DecodeError{Endpoint: ep.Name, Err: errors.New(`object has no "data" field`)}
		}
		raw = bytes.TrimSpace(env.Data)
		if bytes.Equal(raw, []byte("null")) {
			return []T{}, nil
		}
		if len(raw) > 0 && raw[0] == '{' {
			var one T
			if err := json.Unmarshal(raw, &one); err != nil {
				return nil, &DecodeError{Endpoint: ep.Name, Err: err}
			}
			return []T{one}, nil
		}
	default:
		return nil, &DecodeError{Endpoint: ep.Name, Err: fmt.Errorf("unexpected %q at start of body", raw[0])}
	}

	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DecodeError{Endpoint: ep.Name, Err: err}
	}
	return out, nil
}

// DecodeFirst returns the first record of a list response, or nil when it is empty
func DecodeFirst[T any](ep Endpoint, body []byte) (*T, error) {
	list, err := DecodeList[T](ep, body)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// DecodeObject maps a single JSON object onto T
func DecodeObject[T any](ep Endpoint, body []byte) (*T, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &DecodeError{Endpoint: ep.Name, Err: errors.New("expected a JSON object")}
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DecodeError{Endpoint: ep.Name, Err: err}
	}
	return &out, nil
}
