package model

import (
	"encoding/json"
	"fmt"
)

// Kind classifies the outcome of fetching one URL.
type Kind int

const (
	// KindSuccess is a response with a status code below 400.
	KindSuccess Kind = iota

	// KindHTTPError is a response with a status code of 400 or above.
	KindHTTPError

	// KindNetworkError is a fetch that produced no HTTP response at all:
	// DNS failure, refused connection, TLS failure or timeout.
	KindNetworkError
)

// String returns the snake_case name used in reports and the database.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Label returns a space separated, lower-case label for display.
func (k Kind) Label() string {
	switch k {
	case KindSuccess:
		return "ok"
	case KindHTTPError:
		return "http error"
	case KindNetworkError:
		return "network error"
	default:
		return "unknown"
	}
}

// IsBroken reports whether the kind counts as a broken link.
func (k Kind) IsBroken() bool {
	return k == KindHTTPError || k == KindNetworkError
}

// ParseKind converts the output of String back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "success":
		return KindSuccess, nil
	case "http_error":
		return KindHTTPError, nil
	case "network_error":
		return KindNetworkError, nil
	default:
		return KindSuccess, fmt.Errorf("unknown result kind %q", s)
	}
}

// MarshalJSON encodes the kind as its string name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its string name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
