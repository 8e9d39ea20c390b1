package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// NoticeType is the category of a notice. Values match the stored column.
type NoticeType int16

const (
	NoticeComment      NoticeType = 1
	NoticeLike         NoticeType = 2
	NoticeHate         NoticeType = 3
	NoticeFriendAdd    NoticeType = 4
	NoticeFriendRemove NoticeType = 5
)

// NoticeTypes lists every category in storage order.
var NoticeTypes = []NoticeType{
	NoticeComment, NoticeLike, NoticeHate, NoticeFriendAdd, NoticeFriendRemove,
}

var noticeTypeNames = map[NoticeType]string{
	NoticeComment:      "comment",
	NoticeLike:         "like",
	NoticeHate:         "hate",
	NoticeFriendAdd:    "friend_add",
	NoticeFriendRemove: "friend_remove",
}

// Valid reports whether t is one of the known notice types.
func (t NoticeType) Valid() bool {
	_, ok := noticeTypeNames[t]
	return ok
}

func (t NoticeType) String() string {
	if name, ok := noticeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NoticeType(%d)", int16(t))
}

// ParseNoticeType accepts the names returned by String, case-insensitively.
func ParseNoticeType(s string) (NoticeType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range noticeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown notice type %q", s)
}

// Notice tells Addressee that Sender did something. Object is the post id
// for comment, like and hate notices and a free-form message for friend
// notices.
type Notice struct {
	bun.BaseModel `bun:"table:notices,alias:n"`

	ID        ID         `bun:"id,pk,type:bigint" json:"id"`
	Sender    UserID     `bun:"sender,notnull" json:"sender"`
	Type      NoticeType `bun:"notice_type,notnull" json:"notice_type"`
	Object    string     `bun:"sender_object,notnull" json:"sender_object"`
	Addressee UserID     `bun:"addressee_id,notnull" json:"addressee_id"`
	CreatedAt time.Time  `bun:"create_time,notnull" json:"create_time"`
}

// UnreadSummary is the number of unread notices per category.
type UnreadSummary struct {
	Comments     int64 `json:"comments"`
	Likes        int64 `json:"likes"`
	Hates        int64 `json:"hates"`
	FriendAdd    int64 `json:"friend_add"`
	FriendRemove int64 `json:"friend_remove"`
}

// Count returns the counter for t.
func (s UnreadSummary) Count(t NoticeType) int64 {
	switch t {
	case NoticeComment:
		return s.Comments
	case NoticeLike:
		return s.Likes
	case NoticeHate:
		return s.Hates
	case NoticeFriendAdd:
		return s.FriendAdd
	case NoticeFriendRemove:
		return s.FriendRemove
	default:
		return 0
	}
}

// Friendship is a directed friend relation owned by UserID.
type Friendship struct {
	bun.BaseModel `bun:"table:friendships,alias:f"`

	UserID    UserID    `bun:"user_id,pk" json:"user_id"`
	FriendID  UserID    `bun:"friend_id,pk" json:"friend_id"`
	CreatedAt time.Time `bun:"create_time,notnull" json:"create_time"`
}
