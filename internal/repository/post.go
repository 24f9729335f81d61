package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirper-api/internal/model"
)

const postColumns = `id, user_id, kind, content, parent_id, reply_count, repost_count, quote_count,
       like_count, view_count, created_at, updated_at,
       snapshot_post_id, snapshot_author_id, snapshot_username, snapshot_fullname,
       snapshot_avatar_ref, snapshot_content, snapshot_media`

// Counter column per reaction kind. Bookmarks are private membership and
// carry no counter.
var reactionCounters = map[string]string{
	model.ReactionLike:   "like_count",
	model.ReactionView:   "view_count",
	model.ReactionRepost: "repost_count",
	model.ReactionQuote:  "quote_count",
	model.ReactionReply:  "reply_count",
}

// postRow maps the posts table including the flattened snapshot columns.
type postRow struct {
	model.Post
	SnapPostID    *int64         `db:"snapshot_post_id"`
	SnapAuthorID  *int64         `db:"snapshot_author_id"`
	SnapUsername  *string        `db:"snapshot_username"`
	SnapFullname  *string        `db:"snapshot_fullname"`
	SnapAvatarRef *string        `db:"snapshot_avatar_ref"`
	SnapContent   *string        `db:"snapshot_content"`
	SnapMedia     pq.StringArray `db:"snapshot_media"`
}

func (row *postRow) toPost() *model.Post {
	p := row.Post
	if row.SnapPostID != nil {
		snap := &model.PostSnapshot{
			PostID:    *row.SnapPostID,
			MediaRefs: []string(row.SnapMedia),
		}
		if row.SnapAuthorID != nil {
			snap.AuthorID = *row.SnapAuthorID
		}
		if row.SnapUsername != nil {
			snap.Username = *row.SnapUsername
		}
		if row.SnapFullname != nil {
			snap.Fullname = *row.SnapFullname
		}
		if row.SnapAvatarRef != nil {
			snap.AvatarRef = *row.SnapAvatarRef
		}
		snap.Content = row.SnapContent
		p.Snapshot = snap
	}
	return &p
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post, media []model.PostMedia) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var snapPostID, snapAuthorID *int64
	var snapUsername, snapFullname, snapAvatarRef, snapContent *string
	var snapMedia pq.StringArray
	if post.Snapshot != nil {
		s := post.Snapshot
		snapPostID = &s.PostID
		snapAuthorID = &s.AuthorID
		snapUsername = &s.Username
		snapFullname = &s.Fullname
		snapAvatarRef = &s.AvatarRef
		snapContent = s.Content
		snapMedia = pq.StringArray(s.MediaRefs)
	}

	query := `
		INSERT INTO posts (user_id, kind, content, parent_id,
		                   snapshot_post_id, snapshot_author_id, snapshot_username, snapshot_fullname,
		                   snapshot_avatar_ref, snapshot_content, snapshot_media,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowxContext(ctx, query,
		post.UserID,
		post.Kind,
		post.Content,
		post.ParentID,
		snapPostID,
		snapAuthorID,
		snapUsername,
		snapFullname,
		snapAvatarRef,
		snapContent,
		snapMedia,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	for i := range media {
		media[i].PostID = post.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO post_media (post_id, ref, media_type, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, media[i].PostID, media[i].Ref, media[i].MediaType, media[i].Position).Scan(&media[i].ID)
		if err != nil {
			return fmt.Errorf("insert post media: %w", err)
		}
	}
	post.Media = media

	if _, err := tx.ExecContext(ctx, `UPDATE users SET post_count = post_count + 1 WHERE id = $1`, post.UserID); err != nil {
		return fmt.Errorf("update post count: %w", err)
	}

	return tx.Commit()
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var row postRow
	err := r.db.GetContext(ctx, &row, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := row.toPost()
	media, err := r.getPostMedia(ctx, []int64{post.ID})
	if err != nil {
		return nil, err
	}
	post.Media = media[post.ID]
	if post.Media == nil {
		post.Media = []model.PostMedia{}
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return r.attachMedia(ctx, rows)
}

func (r *postRepository) GetReplies(ctx context.Context, parentID int64) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE parent_id = $1 AND kind = $2 ORDER BY created_at DESC`

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, parentID, model.KindReply); err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}

	return r.attachMedia(ctx, rows)
}

func (r *postRepository) attachMedia(ctx context.Context, rows []postRow) ([]model.Post, error) {
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}

	mediaByPost, err := r.getPostMedia(ctx, ids)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(rows))
	for i := range rows {
		p := rows[i].toPost()
		p.Media = mediaByPost[p.ID]
		if p.Media == nil {
			p.Media = []model.PostMedia{}
		}
		posts = append(posts, *p)
	}

	return posts, nil
}

func (r *postRepository) getPostMedia(ctx context.Context, postIDs []int64) (map[int64][]model.PostMedia, error) {
	result := make(map[int64][]model.PostMedia)
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, post_id, ref, media_type, position
		FROM post_media
		WHERE post_id = ANY($1)
		ORDER BY post_id, position
	`

	var media []model.PostMedia
	if err := r.db.SelectContext(ctx, &media, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to get post media: %w", err)
	}

	for _, m := range media {
		result[m.PostID] = append(result[m.PostID], m)
	}

	return result, nil
}

func (r *postRepository) Update(ctx context.Context, postID int64, content *string, removeRefs []string, add []model.PostMedia) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if content != nil {
		result, err := tx.ExecContext(ctx, `UPDATE posts SET content = $1, updated_at = NOW() WHERE id = $2`, *content, postID)
		if err != nil {
			return fmt.Errorf("update post content: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return model.ErrPostNotFound
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET updated_at = NOW() WHERE id = $1`, postID); err != nil {
			return fmt.Errorf("touch post: %w", err)
		}
	}

	if len(removeRefs) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_media WHERE post_id = $1 AND ref = ANY($2)`, postID, pq.Array(removeRefs)); err != nil {
			return fmt.Errorf("remove post media: %w", err)
		}
	}

	for _, m := range add {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO post_media (post_id, ref, media_type, position)
			VALUES ($1, $2, $3, $4)
		`, postID, m.Ref, m.MediaType, m.Position); err != nil {
			return fmt.Errorf("insert post media: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes the post; media and reaction rows follow via ON DELETE
// CASCADE. Replies additionally leave the parent's replied set, keeping the
// parent's reply_count equal to the set's cardinality.
func (r *postRepository) Delete(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, post.ID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET post_count = post_count - 1 WHERE id = $1`, post.UserID); err != nil {
		return fmt.Errorf("update post count: %w", err)
	}

	if post.Kind == model.KindReply && post.ParentID != nil {
		removed, err := tx.ExecContext(ctx, `
			DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2 AND kind = $3
		`, *post.ParentID, post.UserID, model.ReactionReply)
		if err != nil {
			return fmt.Errorf("remove reply reaction: %w", err)
		}
		n, err := removed.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if n > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE posts SET reply_count = reply_count - 1 WHERE id = $1`, *post.ParentID); err != nil {
				return fmt.Errorf("update reply count: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (r *postRepository) FindRepostByActor(ctx context.Context, originalID, actorID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE kind = $1 AND parent_id = $2 AND user_id = $3`

	var row postRow
	err := r.db.GetContext(ctx, &row, query, model.KindRepost, originalID, actorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find repost: %w", err)
	}

	return row.toPost(), nil
}

func (r *postRepository) ToggleReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO post_reactions (post_id, user_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id, kind) DO NOTHING
	`, postID, userID, kind)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	delta := 1
	member := true
	if inserted == 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2 AND kind = $3
		`, postID, userID, kind); err != nil {
			return false, fmt.Errorf("delete reaction: %w", err)
		}
		delta = -1
		member = false
	}

	if err := r.applyCounter(ctx, tx, postID, kind, delta); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return member, nil
}

func (r *postRepository) AddReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO post_reactions (post_id, user_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id, kind) DO NOTHING
	`, postID, userID, kind)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if inserted == 0 {
		return false, tx.Commit()
	}

	if err := r.applyCounter(ctx, tx, postID, kind, 1); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

func (r *postRepository) RemoveReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2 AND kind = $3
	`, postID, userID, kind)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if removed == 0 {
		return false, tx.Commit()
	}

	if err := r.applyCounter(ctx, tx, postID, kind, -1); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

func (r *postRepository) applyCounter(ctx context.Context, tx *sqlx.Tx, postID int64, kind string, delta int) error {
	column, ok := reactionCounters[kind]
	if !ok {
		return nil
	}

	query := fmt.Sprintf(`UPDATE posts SET %s = %s + $1 WHERE id = $2`, column, column)
	if _, err := tx.ExecContext(ctx, query, delta, postID); err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}

	return nil
}

func (r *postRepository) CheckReactions(ctx context.Context, userID int64, postIDs []int64, kind string) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	for _, id := range postIDs {
		result[id] = false
	}

	query := `SELECT post_id FROM post_reactions WHERE user_id = $1 AND kind = $2 AND post_id = ANY($3)`

	var matched []int64
	if err := r.db.SelectContext(ctx, &matched, query, userID, kind, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("failed to check reactions: %w", err)
	}

	for _, id := range matched {
		result[id] = true
	}

	return result, nil
}

func (r *postRepository) MediaRefsByUser(ctx context.Context, userID int64) ([]model.PostMedia, error) {
	query := `
		SELECT pm.id, pm.post_id, pm.ref, pm.media_type, pm.position
		FROM post_media pm
		JOIN posts p ON p.id = pm.post_id
		WHERE p.user_id = $1
	`

	var media []model.PostMedia
	if err := r.db.SelectContext(ctx, &media, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user media: %w", err)
	}

	return media, nil
}
