package handler

import (
	"context"
	"net/http"
	"strings"

	"chirper-api/internal/blob"
	"chirper-api/internal/httputil"
	"chirper-api/internal/service"
	"chirper-api/internal/transport/http/middleware"
)

// PostHandler groups post-related HTTP endpoints.
type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// List returns every post, newest first.
// GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	posts, err := h.postService.List(r.Context(), viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Create publishes an original post from a multipart form: a "content"
// text field plus up to four "mediaFiles" uploads.
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	content, files, ok := h.postForm(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Create(r.Context(), actorID, content, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Get returns one post.
// GET /posts/{postId}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	post, err := h.postService.GetByID(r.Context(), viewerID, postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update edits a post's content and media set. Besides content and new
// files the form may carry "removeMedia" fields naming refs to drop.
// PATCH /posts/{postId}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	content, files, ok := h.postForm(w, r)
	if !ok {
		return
	}

	var removeRefs []string
	if r.MultipartForm != nil {
		removeRefs = r.MultipartForm.Value["removeMedia"]
	}

	post, err := h.postService.Update(r.Context(), actorID, postID, content, removeRefs, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete removes the caller's post.
// DELETE /posts/{postId}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), actorID, postID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// ToggleLike flips the caller's like on a post.
// PATCH /posts/{postId}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.postService.ToggleLike, "liked")
}

// AddView records the caller as a viewer; repeat views change nothing.
// PATCH /posts/{postId}/view
func (h *PostHandler) AddView(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.postService.AddView, "viewed")
}

// ToggleBookmark flips the caller's private bookmark.
// PATCH /posts/{postId}/bookmark
func (h *PostHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.reaction(w, r, h.postService.ToggleBookmark, "bookmarked")
}

// Repost toggles the caller's repost of a post.
// POST /posts/{postId}/repost
func (h *PostHandler) Repost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	reposted, post, err := h.postService.Repost(r.Context(), actorID, postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !reposted {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"reposted": false})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"reposted": true,
		"post":     post,
	})
}

// Quote publishes a quote post with its own content and media.
// POST /posts/{postId}/quote
func (h *PostHandler) Quote(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	content, files, ok := h.postForm(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Quote(r.Context(), actorID, postID, content, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Reply publishes a reply to a post.
// POST /posts/{postId}/reply
func (h *PostHandler) Reply(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	content, files, ok := h.postForm(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Reply(r.Context(), actorID, parentID, content, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetReplies lists the direct replies of a post.
// GET /posts/{postId}/replies
func (h *PostHandler) GetReplies(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	replies, err := h.postService.GetReplies(r.Context(), viewerID, parentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, replies)
}

// reaction factors the shared shape of the membership toggle endpoints.
func (h *PostHandler) reaction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, postID int64) (bool, error), field string) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}

	member, err := op(r.Context(), actorID, postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{field: member})
}

// postForm parses the multipart body shared by create, quote and reply:
// an optional "content" field and up to four "mediaFiles" uploads.
func (h *PostHandler) postForm(w http.ResponseWriter, r *http.Request) (*string, []blob.File, bool) {
	if err := parseMultipart(w, r); err != nil {
		writeServiceError(w, err)
		return nil, nil, false
	}

	var content *string
	if raw := strings.TrimSpace(r.FormValue("content")); raw != "" {
		content = &raw
	}

	files, err := formFiles(r, "mediaFiles")
	if err != nil {
		writeServiceError(w, err)
		return nil, nil, false
	}

	return content, files, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return actorID, true
}
