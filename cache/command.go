package cache

import (
	"strconv"
	"strings"
	"time"
)

// Command is a single key-value store instruction. Name is the upper-case
// command verb and Args holds the key followed by any operands.
type Command struct {
	Name string
	Args []string
}

// Key returns the first argument, which is the addressed key for every
// command this package builds.
func (c Command) Key() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the command for logs. Values are not redacted since the
// store only ever holds ids and counters.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Get reads a string value. A missing key yields a nil reply.
func Get(key string) Command {
	return Command{Name: "GET", Args: []string{key}}
}

// Set stores value under key without expiry.
func Set(key, value string) Command {
	return Command{Name: "SET", Args: []string{key, value}}
}

// Del removes one or more keys in a single command.
func Del(keys ...string) Command {
	return Command{Name: "DEL", Args: append([]string(nil), keys...)}
}

// Incr adds one to a counter, creating it at 1.
func Incr(key string) Command {
	return Command{Name: "INCR", Args: []string{key}}
}

// Decr subtracts one from a counter, creating it at -1.
func Decr(key string) Command {
	return Command{Name: "DECR", Args: []string{key}}
}

// SAdd adds member to a set. The reply is 1 when it was added.
func SAdd(key, member string) Command {
	return Command{Name: "SADD", Args: []string{key, member}}
}

// SRem removes member from a set. The reply is 1 when it was present.
func SRem(key, member string) Command {
	return Command{Name: "SREM", Args: []string{key, member}}
}

// SIsMember replies 1 when member is in the set and 0 otherwise.
func SIsMember(key, member string) Command {
	return Command{Name: "SISMEMBER", Args: []string{key, member}}
}

// LPush prepends values to a list.
func LPush(key string, values ...string) Command {
	return Command{Name: "LPUSH", Args: append([]string{key}, values...)}
}

// Expire sets a ttl on key, truncated to whole seconds (minimum one).
func Expire(key string, ttl time.Duration) Command {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	return Command{Name: "EXPIRE", Args: []string{key, strconv.FormatInt(secs, 10)}}
}
