package cache

import "strconv"

// KeySeparator delimits the relation and the entity id in a key.
const KeySeparator = ":"

// Relation names a family of keys. Every key is built as
// {relation}:{id}, optionally under a deployment prefix.
type Relation string

const (
	RelPostLikes          Relation = "post_likes"
	RelPostLikeCount      Relation = "post_like_count"
	RelPostHates          Relation = "post_hates"
	RelPostHateCount      Relation = "post_hate_count"
	RelCommentCount       Relation = "comment_count"
	RelPostSender         Relation = "post_sender"
	RelUnreadComments     Relation = "unread_comments"
	RelUnreadLikes        Relation = "unread_likes"
	RelUnreadHates        Relation = "unread_hates"
	RelUnreadFriendAdd    Relation = "unread_friend_add"
	RelUnreadFriendRemove Relation = "unread_friend_remove"
)

// Keys builds cache keys. The zero value builds unprefixed keys.
type Keys struct {
	prefix string
}

// NewKeys returns a key builder that namespaces every key under prefix.
// An empty prefix yields bare {relation}:{id} keys.
func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

// Prefix returns the deployment prefix, if any.
func (k Keys) Prefix() string { return k.prefix }

// Relation builds the key for relation r and entity id.
func (k Keys) Relation(r Relation, id int64) string {
	key := string(r) + KeySeparator + strconv.FormatInt(id, 10)
	if k.prefix == "" {
		return key
	}
	return k.prefix + KeySeparator + key
}

// PostLikes is the set of users that like a post.
func (k Keys) PostLikes(postID int64) string     { return k.Relation(RelPostLikes, postID) }
// PostLikeCount is the like counter of a post.
func (k Keys) PostLikeCount(postID int64) string { return k.Relation(RelPostLikeCount, postID) }
// PostHates is the set of users that hate a post.
func (k Keys) PostHates(postID int64) string     { return k.Relation(RelPostHates, postID) }
// PostHateCount is the hate counter of a post.
func (k Keys) PostHateCount(postID int64) string { return k.Relation(RelPostHateCount, postID) }
// CommentCount is the comment counter of a post.
func (k Keys) CommentCount(postID int64) string  { return k.Relation(RelCommentCount, postID) }
// PostSender holds the author id of a post.
func (k Keys) PostSender(postID int64) string    { return k.Relation(RelPostSender, postID) }

// PostKeys lists every key owned by a post. Deleting a post removes all of
// them.
func (k Keys) PostKeys(postID int64) []string {
	return []string{
		k.PostLikes(postID),
		k.PostLikeCount(postID),
		k.PostHates(postID),
		k.PostHateCount(postID),
		k.CommentCount(postID),
		k.PostSender(postID),
	}
}

// Member renders a user id as a set member.
func Member(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
