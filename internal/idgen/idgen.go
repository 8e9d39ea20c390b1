// Package idgen produces entity ids.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/goliatone/go-social-cache/model"
)

// Generator hands out unique, roughly time-ordered ids. Implementations are
// safe for concurrent use.
type Generator interface {
	NextID() model.ID
}

// Snowflake generates ids from a snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for node, which must fit in the node
// bits (0-1023 with the default layout).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// NextID returns a new time-ordered id.
func (s *Snowflake) NextID() model.ID {
	return model.ID(s.node.Generate().Int64())
}

// Sequence is a deterministic generator for tests and fixtures.
type Sequence struct {
	last atomic.Int64
}

// NewSequence returns ids start, start+1, ...
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start - 1)
	return s
}

func (s *Sequence) NextID() model.ID { return model.ID(s.last.Add(1)) }
