package service

import (
	"context"
	"strings"

	"chirper-api/internal/blob"
	"chirper-api/internal/model"
	"chirper-api/internal/repository"
	"chirper-api/pkg/logger"
)

// PostService handles business logic for posts: creation in all four
// kinds, reaction toggles, and read-path decoration.
type PostService struct {
	repo  repository.PostRepository
	users repository.UserRepository
	store blob.Store
	media *MediaService
	log   *logger.Logger
}

func NewPostService(repo repository.PostRepository, users repository.UserRepository, store blob.Store, media *MediaService, log *logger.Logger) *PostService {
	return &PostService{
		repo:  repo,
		users: users,
		store: store,
		media: media,
		log:   log,
	}
}

// Create publishes an original post. Content may be empty only when media
// is attached.
func (s *PostService) Create(ctx context.Context, actorID int64, content *string, files []blob.File) (*model.Post, error) {
	if !hasContent(content) && len(files) == 0 {
		return nil, model.ErrContentRequired
	}

	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		return nil, err
	}

	media, err := s.uploadMedia(ctx, files, 0)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:  actorID,
		Kind:    model.KindOriginal,
		Content: content,
	}

	if err := s.repo.Create(ctx, post, media); err != nil {
		s.cleanupBlobs(ctx, media)
		return nil, err
	}

	return s.GetByID(ctx, actorID, post.ID)
}

// List returns every post, newest first, decorated for the viewer.
func (s *PostService) List(ctx context.Context, viewerID int64) ([]model.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) GetByID(ctx context.Context, viewerID, postID int64) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	posts := []model.Post{*post}
	if err := s.decorate(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// GetReplies lists the direct replies of a post, newest first.
func (s *PostService) GetReplies(ctx context.Context, viewerID, parentID int64) ([]model.Post, error) {
	if _, err := s.repo.GetByID(ctx, parentID); err != nil {
		return nil, err
	}

	replies, err := s.repo.GetReplies(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, viewerID, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// Update edits a post's content and media set. Only the verified author
// may edit; the combined media count stays within the per-post limit.
func (s *PostService) Update(ctx context.Context, actorID, postID int64, content *string, removeRefs []string, files []blob.File) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, model.ErrNotPostOwner
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Verified {
		return nil, model.ErrNotVerified
	}

	removed := make(map[string]bool, len(removeRefs))
	for _, ref := range removeRefs {
		removed[ref] = true
	}
	remaining := 0
	nextPos := 0
	for _, m := range post.Media {
		if removed[m.Ref] {
			continue
		}
		remaining++
		if m.Position >= nextPos {
			nextPos = m.Position + 1
		}
	}
	if remaining+len(files) > model.MaxPostMediaCount {
		return nil, model.ErrMediaLimitExceeded
	}

	finalContent := post.Content
	if content != nil {
		finalContent = content
	}
	if !hasContent(finalContent) && remaining+len(files) == 0 {
		return nil, model.ErrContentRequired
	}

	added, err := s.uploadMedia(ctx, files, nextPos)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, postID, content, removeRefs, added); err != nil {
		s.cleanupBlobs(ctx, added)
		return nil, err
	}

	for _, m := range post.Media {
		if removed[m.Ref] {
			if err := s.store.Delete(ctx, m.Ref); err != nil {
				s.log.WithError(err).WithField("ref", m.Ref).Warn("failed to delete replaced media blob")
			}
		}
	}
	if len(removeRefs) > 0 {
		s.media.Forget(ctx, removeRefs...)
	}

	return s.GetByID(ctx, actorID, postID)
}

// Delete removes the actor's post with its blobs and cache entries.
func (s *PostService) Delete(ctx context.Context, actorID, postID int64) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return model.ErrNotPostOwner
	}

	if err := s.repo.Delete(ctx, post); err != nil {
		return err
	}

	if post.Kind == model.KindRepost && post.ParentID != nil {
		if _, err := s.repo.RemoveReaction(ctx, *post.ParentID, actorID, model.ReactionRepost); err != nil {
			s.log.WithError(err).WithField("post_id", *post.ParentID).Warn("failed to remove repost marker")
		}
	}

	s.cleanupBlobs(ctx, post.Media)
	return nil
}

// ToggleLike flips the viewer's like; the like counter tracks the set.
func (s *PostService) ToggleLike(ctx context.Context, actorID, postID int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		return false, err
	}
	return s.repo.ToggleReaction(ctx, postID, actorID, model.ReactionLike)
}

// AddView records the viewer once; repeat views are no-ops.
func (s *PostService) AddView(ctx context.Context, actorID, postID int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		return false, err
	}
	return s.repo.AddReaction(ctx, postID, actorID, model.ReactionView)
}

// ToggleBookmark flips private bookmark membership; no counter moves.
func (s *PostService) ToggleBookmark(ctx context.Context, actorID, postID int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		return false, err
	}
	return s.repo.ToggleReaction(ctx, postID, actorID, model.ReactionBookmark)
}

// Reply creates a reply carrying a frozen snapshot of the parent and adds
// the actor to the parent's replied set. The reply counter counts distinct
// repliers, not reply posts.
func (s *PostService) Reply(ctx context.Context, actorID, parentID int64, content *string, files []blob.File) (*model.Post, error) {
	if !hasContent(content) && len(files) == 0 {
		return nil, model.ErrContentRequired
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshotOf(ctx, parent)
	if err != nil {
		return nil, err
	}

	media, err := s.uploadMedia(ctx, files, 0)
	if err != nil {
		return nil, err
	}

	reply := &model.Post{
		UserID:   actorID,
		Kind:     model.KindReply,
		Content:  content,
		ParentID: &parent.ID,
		Snapshot: snapshot,
	}

	if err := s.repo.Create(ctx, reply, media); err != nil {
		s.cleanupBlobs(ctx, media)
		return nil, err
	}

	if _, err := s.repo.AddReaction(ctx, parent.ID, actorID, model.ReactionReply); err != nil {
		s.log.WithError(err).WithField("post_id", parent.ID).Warn("failed to record reply reaction")
	}

	return s.GetByID(ctx, actorID, reply.ID)
}

// Repost toggles the actor's repost of a post. Reposting a repost targets
// its original. An existing repost is undone: the shadow post disappears
// and the marker is removed. Otherwise a contentless shadow post with a
// snapshot is created. Returns the repost state after the call.
func (s *PostService) Repost(ctx context.Context, actorID, postID int64) (bool, *model.Post, error) {
	original, err := s.resolveOriginal(ctx, postID)
	if err != nil {
		return false, nil, err
	}

	existing, err := s.repo.FindRepostByActor(ctx, original.ID, actorID)
	if err != nil {
		return false, nil, err
	}

	if existing != nil {
		if err := s.repo.Delete(ctx, existing); err != nil {
			return false, nil, err
		}
		if _, err := s.repo.RemoveReaction(ctx, original.ID, actorID, model.ReactionRepost); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}

	snapshot, err := s.snapshotOf(ctx, original)
	if err != nil {
		return false, nil, err
	}

	shadow := &model.Post{
		UserID:   actorID,
		Kind:     model.KindRepost,
		ParentID: &original.ID,
		Snapshot: snapshot,
	}

	if err := s.repo.Create(ctx, shadow, nil); err != nil {
		return false, nil, err
	}
	if _, err := s.repo.AddReaction(ctx, original.ID, actorID, model.ReactionRepost); err != nil {
		return false, nil, err
	}

	decorated, err := s.GetByID(ctx, actorID, shadow.ID)
	if err != nil {
		return true, shadow, nil
	}
	return true, decorated, nil
}

// Quote creates a quote post with its own content plus a snapshot, and
// toggles the actor's membership in the quoted set.
func (s *PostService) Quote(ctx context.Context, actorID, postID int64, content *string, files []blob.File) (*model.Post, error) {
	if !hasContent(content) && len(files) == 0 {
		return nil, model.ErrContentRequired
	}

	original, err := s.resolveOriginal(ctx, postID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshotOf(ctx, original)
	if err != nil {
		return nil, err
	}

	media, err := s.uploadMedia(ctx, files, 0)
	if err != nil {
		return nil, err
	}

	quote := &model.Post{
		UserID:   actorID,
		Kind:     model.KindQuote,
		Content:  content,
		ParentID: &original.ID,
		Snapshot: snapshot,
	}

	if err := s.repo.Create(ctx, quote, media); err != nil {
		s.cleanupBlobs(ctx, media)
		return nil, err
	}

	if _, err := s.repo.ToggleReaction(ctx, original.ID, actorID, model.ReactionQuote); err != nil {
		s.log.WithError(err).WithField("post_id", original.ID).Warn("failed to toggle quote reaction")
	}

	return s.GetByID(ctx, actorID, quote.ID)
}

// resolveOriginal follows one level of repost indirection so reactions
// always land on the canonical post.
func (s *PostService) resolveOriginal(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Kind == model.KindRepost && post.ParentID != nil {
		return s.repo.GetByID(ctx, *post.ParentID)
	}
	return post, nil
}

// snapshotOf freezes the author display data and media refs of a post at
// the moment of reference. The copy is deliberately never updated.
func (s *PostService) snapshotOf(ctx context.Context, post *model.Post) (*model.PostSnapshot, error) {
	author, err := s.users.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(post.Media))
	for _, m := range post.Media {
		refs = append(refs, m.Ref)
	}

	return &model.PostSnapshot{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Username:  author.Username,
		Fullname:  author.Fullname,
		AvatarRef: author.AvatarRef,
		Content:   post.Content,
		MediaRefs: refs,
	}, nil
}

// uploadMedia validates and stores attachments, returning ordered media
// rows. nextPos is the first free position so added rows sort after the
// kept ones.
func (s *PostService) uploadMedia(ctx context.Context, files []blob.File, nextPos int) ([]model.PostMedia, error) {
	if len(files) == 0 {
		return nil, nil
	}

	refs, err := s.store.UploadMany(ctx, files, blob.FolderPostMedia)
	if err != nil {
		return nil, err
	}

	media := make([]model.PostMedia, len(files))
	for i := range files {
		mediaType := model.MediaTypeImage
		if strings.HasPrefix(files[i].ContentType, "video/") {
			mediaType = model.MediaTypeVideo
		}
		media[i] = model.PostMedia{
			Ref:       refs[i],
			MediaType: mediaType,
			Position:  nextPos + i,
		}
	}

	return media, nil
}

// cleanupBlobs removes uploaded blobs after a failed write, and post
// blobs after a delete. Failures are logged, orphaned blobs are not fatal.
func (s *PostService) cleanupBlobs(ctx context.Context, media []model.PostMedia) {
	if len(media) == 0 {
		return
	}
	refs := make([]string, 0, len(media))
	for _, m := range media {
		if err := s.store.Delete(ctx, m.Ref); err != nil {
			s.log.WithError(err).WithField("ref", m.Ref).Warn("failed to delete media blob")
		}
		refs = append(refs, m.Ref)
	}
	s.media.Forget(ctx, refs...)
}

// decorate attaches author display data, viewer reaction flags and
// resolved media payloads to a page of posts.
func (s *PostService) decorate(ctx context.Context, viewerID int64, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]bool, len(posts))
	for i := range posts {
		postIDs = append(postIDs, posts[i].ID)
		if !seen[posts[i].UserID] {
			seen[posts[i].UserID] = true
			authorIDs = append(authorIDs, posts[i].UserID)
		}
	}

	authors, err := s.users.GetSummaries(ctx, authorIDs)
	if err != nil {
		return err
	}

	var liked, bookmarked map[int64]bool
	if viewerID != 0 {
		if liked, err = s.repo.CheckReactions(ctx, viewerID, postIDs, model.ReactionLike); err != nil {
			return err
		}
		if bookmarked, err = s.repo.CheckReactions(ctx, viewerID, postIDs, model.ReactionBookmark); err != nil {
			return err
		}
	}

	for i := range posts {
		p := &posts[i]
		if author, ok := authors[p.UserID]; ok {
			a := author
			s.media.DecorateAuthor(ctx, &a)
			p.Author = &a
		}
		p.IsLiked = liked[p.ID]
		p.IsBookmarked = bookmarked[p.ID]
		s.media.DecorateMedia(ctx, p.Media)
		s.media.DecorateSnapshot(ctx, p.Snapshot)
	}

	return nil
}

func hasContent(content *string) bool {
	return content != nil && strings.TrimSpace(*content) != ""
}
