package cache

import "fmt"

// Batch collects commands under caller-chosen tags so that replies are read
// back by name instead of by position.
type Batch struct {
	tags  []string
	cmds  []Command
	index map[string]int
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{index: make(map[string]int)}
}

// Add registers cmd under tag. Tags must be unique within a batch; reusing
// one is a programming error and panics.
func (b *Batch) Add(tag string, cmd Command) *Batch {
	if _, exists := b.index[tag]; exists {
		panic(fmt.Sprintf("cache: duplicate batch tag %q", tag))
	}
	b.index[tag] = len(b.cmds)
	b.tags = append(b.tags, tag)
	b.cmds = append(b.cmds, cmd)
	return b
}

// Len is the number of queued commands.
func (b *Batch) Len() int { return len(b.cmds) }

// Commands returns the commands in submission order.
func (b *Batch) Commands() []Command {
	return append([]Command(nil), b.cmds...)
}

// BatchResult holds the replies of an executed Batch keyed by tag.
type BatchResult struct {
	replies map[string]Reply
}

func newBatchResult(b *Batch, replies []Reply) BatchResult {
	out := make(map[string]Reply, len(b.tags))
	for i, tag := range b.tags {
		out[tag] = replies[i]
	}
	return BatchResult{replies: out}
}

// Reply returns the raw reply for tag.
func (r BatchResult) Reply(tag string) (Reply, bool) {
	reply, ok := r.replies[tag]
	return reply, ok
}

// Int64 decodes the reply for tag as a number. Missing tags, absent keys and
// undecodable values all report ok=false.
func (r BatchResult) Int64(tag string) (int64, bool) {
	reply, ok := r.replies[tag]
	if !ok {
		return 0, false
	}
	return reply.Int64()
}

// Bool reports whether the reply for tag is the integer 1.
func (r BatchResult) Bool(tag string) bool {
	return r.replies[tag].Bool()
}

// Len is the number of replies.
func (r BatchResult) Len() int { return len(r.replies) }
