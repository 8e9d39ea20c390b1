package cache

import (
	"strconv"
	"strings"
)

// ReplyKind identifies the shape of a store reply.
type ReplyKind int

const (
	// ReplyNil is returned for absent keys.
	ReplyNil ReplyKind = iota
	// ReplyBulk is a byte string (GET values, status replies like "OK").
	ReplyBulk
	// ReplyInteger is an integer reply (INCR, SISMEMBER, DEL...).
	ReplyInteger
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyBulk:
		return "bulk"
	case ReplyInteger:
		return "integer"
	default:
		return "nil"
	}
}

// Reply is the decoded answer to a Command. Error replies never surface as a
// Reply; executors turn them into *StoreError.
type Reply struct {
	Kind    ReplyKind
	Bulk    []byte
	Integer int64
}

// NilReply is the reply for a missing key.
func NilReply() Reply { return Reply{Kind: ReplyNil} }

// BulkReply wraps a string reply.
func BulkReply(s string) Reply { return Reply{Kind: ReplyBulk, Bulk: []byte(s)} }

// IntegerReply wraps an integer reply.
func IntegerReply(n int64) Reply { return Reply{Kind: ReplyInteger, Integer: n} }

// IsNil reports whether the addressed key was absent.
func (r Reply) IsNil() bool { return r.Kind == ReplyNil }

// Int64 decodes the reply as a number. Integer replies are returned as is,
// bulk strings are parsed as base-10. Anything else, including a bulk string
// that is not a number, reports ok=false.
func (r Reply) Int64() (int64, bool) {
	switch r.Kind {
	case ReplyInteger:
		return r.Integer, true
	case ReplyBulk:
		n, err := strconv.ParseInt(strings.TrimSpace(string(r.Bulk)), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool is true iff the reply is the integer 1 (SISMEMBER hit).
func (r Reply) Bool() bool {
	return r.Kind == ReplyInteger && r.Integer == 1
}

func (r Reply) String() string {
	switch r.Kind {
	case ReplyBulk:
		return string(r.Bulk)
	case ReplyInteger:
		return strconv.FormatInt(r.Integer, 10)
	default:
		return "(nil)"
	}
}
