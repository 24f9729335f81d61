package repository

import (
	"context"

	"chirper-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByLogin resolves an account by username or email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// GetSummaries batch-loads author display data for post decoration.
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	SetVerified(ctx context.Context, id int64) error
	// Delete removes the user row; posts, media rows, reactions and follow
	// edges go with it. Blob and cache cleanup happen in the service before
	// this call.
	Delete(ctx context.Context, id int64) error
	// ToggleFollow flips the actor->target follow edge and both counters in
	// one transaction. Returns whether the actor follows the target afterwards.
	ToggleFollow(ctx context.Context, targetID, actorID int64) (following bool, err error)
}

type PostRepository interface {
	// Create inserts the post, its media rows and the author post_count
	// increment in one transaction. Fills in ID and timestamps.
	Create(ctx context.Context, post *model.Post, media []model.PostMedia) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
	GetReplies(ctx context.Context, parentID int64) ([]model.Post, error)
	// Update replaces content if non-nil, removes the media rows whose refs
	// are listed and appends the new ones, all in one transaction. Media
	// count limits are validated by the caller beforehand.
	Update(ctx context.Context, postID int64, content *string, removeRefs []string, add []model.PostMedia) error
	// Delete removes the post with its media and reaction rows, decrements
	// the author's post_count, and for replies removes the deleter from the
	// parent's replied set with the matching counter decrement.
	Delete(ctx context.Context, post *model.Post) error
	// FindRepostByActor returns the actor's shadow post for an original, or
	// (nil, nil) when the actor has not reposted it.
	FindRepostByActor(ctx context.Context, originalID, actorID int64) (*model.Post, error)
	// ToggleReaction flips (postID, userID, kind) membership and the
	// denormalized counter in one transaction. Returns membership after.
	ToggleReaction(ctx context.Context, postID, userID int64, kind string) (member bool, err error)
	// AddReaction adds membership if absent (add-only semantics, used for
	// views and replies). Returns whether a row was inserted.
	AddReaction(ctx context.Context, postID, userID int64, kind string) (added bool, err error)
	// RemoveReaction drops membership if present. Returns whether a row was removed.
	RemoveReaction(ctx context.Context, postID, userID int64, kind string) (removed bool, err error)
	// CheckReactions reports which of the given posts carry the user's
	// reaction of the given kind.
	CheckReactions(ctx context.Context, userID int64, postIDs []int64, kind string) (map[int64]bool, error)
	// MediaRefsByUser lists every media row attached to the user's posts,
	// for blob/cache cleanup before a cascade delete.
	MediaRefsByUser(ctx context.Context, userID int64) ([]model.PostMedia, error)
}
