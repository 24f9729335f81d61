package model

import (
	"errors"
	"time"
)

// Post kinds. Reposts are shadow posts pointing at a canonical original;
// quotes and replies carry their own content plus a frozen snapshot.
const (
	KindOriginal = "original"
	KindReply    = "reply"
	KindRepost   = "repost"
	KindQuote    = "quote"
)

// Reaction kinds. A (post, user, kind) row means the user is a member of
// that reaction set; the matching counter on posts always equals the set's
// cardinality. Bookmarks are private membership with no counter.
const (
	ReactionLike     = "like"
	ReactionView     = "view"
	ReactionRepost   = "repost"
	ReactionQuote    = "quote"
	ReactionReply    = "reply"
	ReactionBookmark = "bookmark"
)

// Post represents a post with its denormalized reaction counters.
type Post struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"userId"`
	Kind        string     `db:"kind" json:"kind"`
	Content     *string    `db:"content" json:"content"`
	ParentID    *int64     `db:"parent_id" json:"parentId,omitempty"`
	ReplyCount  int        `db:"reply_count" json:"replyCount"`
	RepostCount int        `db:"repost_count" json:"repostCount"`
	QuoteCount  int        `db:"quote_count" json:"quoteCount"`
	LikeCount   int        `db:"like_count" json:"likeCount"`
	ViewCount   int        `db:"view_count" json:"viewCount"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`

	// Joined / decorated fields (not columns of posts)
	Media        []PostMedia   `json:"media"`
	Snapshot     *PostSnapshot `json:"originalPost,omitempty"`
	Author       *UserSummary  `json:"author,omitempty"`
	IsLiked      bool          `json:"isLiked"`
	IsBookmarked bool          `json:"isBookmarked"`
}

// PostSnapshot is the denormalized copy of a replied-to or original post,
// captured at write time and deliberately not kept in sync.
type PostSnapshot struct {
	PostID       int64    `json:"postId"`
	AuthorID     int64    `json:"authorId"`
	Username     string   `json:"username"`
	Fullname     string   `json:"fullname"`
	AvatarRef    string   `json:"avatar"`
	Content      *string  `json:"content"`
	MediaRefs    []string `json:"media"`
	CachedAvatar string   `json:"cachedAvatar,omitempty"`
}

// PostMedia is a single attached media item.
type PostMedia struct {
	ID        int64  `db:"id" json:"id"`
	PostID    int64  `db:"post_id" json:"-"`
	Ref       string `db:"ref" json:"ref"`
	MediaType string `db:"media_type" json:"mediaType"` // "image" or "video"
	Position  int    `db:"position" json:"position"`

	// Src is the resolved payload: a base64 data URI for images, the
	// reference URL for videos. Attached on read paths only.
	Src string `db:"-" json:"src,omitempty"`
}

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrNotVerified     = errors.New("user is not verified")
	ErrContentRequired = errors.New("content is required when no media is attached")
)
