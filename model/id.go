package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies posts, comments and notices. It is serialized as a JSON
// string so that clients without 64-bit integers keep full precision, and
// stored as a plain integer column.
type ID int64

// UserID identifies a user account.
type UserID int64

// ParseID parses a decimal id as it appears in URLs and CLI arguments.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(n), nil
}

func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// MarshalJSON writes the id as a quoted decimal string.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// Value stores the id as an integer. Without it bun would write pointer
// fields through MarshalJSON.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan reads an integer column, also accepting drivers that return text.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = 0
	case int64:
		*id = ID(v)
	case []byte:
		parsed, err := ParseID(string(v))
		if err != nil {
			return err
		}
		*id = parsed
	case string:
		parsed, err := ParseID(v)
		if err != nil {
			return err
		}
		*id = parsed
	default:
		return fmt.Errorf("cannot scan %T into model.ID", src)
	}
	return nil
}

// UnmarshalJSON accepts both "123" and 123.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n)
	return nil
}

func (u UserID) Int64() int64 { return int64(u) }

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }
