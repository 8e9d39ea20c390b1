package model

import (
	"time"

	"github.com/uptrace/bun"
)

// MaxThreadComments is the number of comments loaded with a thread; the
// rest are paged.
const MaxThreadComments = 10

// Stats are the derived fields of a post. The counts start from the
// relational columns; Liked and Hated only ever come from the cache.
type Stats struct {
	LikeCount    int64 `bun:"likes,notnull,default:0" json:"like_count"`
	HateCount    int64 `bun:"hates,notnull,default:0" json:"hate_count"`
	CommentCount int64 `bun:"comments,notnull,default:0" json:"comment_count"`
	Liked        bool  `bun:"-" json:"liked"`
	Hated        bool  `bun:"-" json:"hated"`
}

// Post is a post or, when OriginID is set, a comment on another post.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        ID        `bun:"id,pk,type:bigint" json:"id"`
	Sender    UserID    `bun:"sender,notnull" json:"sender"`
	Content   string    `bun:"content,notnull" json:"content"`
	OriginID  *ID       `bun:"origin_id,type:bigint" json:"origin_id,omitempty"`
	CreatedAt time.Time `bun:"create_time,notnull" json:"create_time"`

	Stats
}

// IsComment reports whether p answers another post.
func (p *Post) IsComment() bool { return p.OriginID != nil }

func (p *Post) Targets() []Target {
	return []Target{{ID: p.ID, Stats: &p.Stats}}
}

// Posts is a list of posts reconciled together.
type Posts []*Post

func (ps Posts) Targets() []Target {
	out := make([]Target, 0, len(ps))
	for _, p := range ps {
		out = append(out, Target{ID: p.ID, Stats: &p.Stats})
	}
	return out
}

// Thread is a post with the first page of its comments.
type Thread struct {
	Post     *Post   `json:"post"`
	Comments []*Post `json:"comments"`
}

func (t *Thread) Targets() []Target {
	out := make([]Target, 0, 1+len(t.Comments))
	if t.Post != nil {
		out = append(out, t.Post.Targets()...)
	}
	return append(out, Posts(t.Comments).Targets()...)
}
