package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"testing"

	"chirper-api/internal/blob"
	"chirper-api/internal/model"
	"chirper-api/pkg/logger"
)

// Function-field mocks: each test assigns just the behavior it needs and
// the zero value fails loudly, because services depend on the repository
// interfaces rather than the sqlx implementations.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	getByLoginFn    func(ctx context.Context, login string) (*model.User, error)
	listFn          func(ctx context.Context) ([]model.User, error)
	getSummariesFn  func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	existsPairFn    func(ctx context.Context, username, email string) (bool, error)
	existsFn        func(ctx context.Context, username string) (bool, error)
	updateFn        func(ctx context.Context, user *model.User) error
	setVerifiedFn   func(ctx context.Context, id int64) error
	deleteFn        func(ctx context.Context, id int64) error
	toggleFollowFn  func(ctx context.Context, targetID, actorID int64) (bool, error)

	createCalls       []*model.User
	updateCalls       []*model.User
	deleteCalls       []int64
	toggleFollowCalls [][2]int64
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if m.getByLoginFn != nil {
		return m.getByLoginFn(ctx, login)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	return map[int64]model.UserSummary{}, nil
}

func (m *mockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsPairFn != nil {
		return m.existsPairFn(ctx, username, email)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.updateCalls = append(m.updateCalls, user)
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) SetVerified(ctx context.Context, id int64) error {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	m.deleteCalls = append(m.deleteCalls, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) ToggleFollow(ctx context.Context, targetID, actorID int64) (bool, error) {
	m.toggleFollowCalls = append(m.toggleFollowCalls, [2]int64{targetID, actorID})
	if m.toggleFollowFn != nil {
		return m.toggleFollowFn(ctx, targetID, actorID)
	}
	return true, nil
}

type mockPostRepository struct {
	createFn          func(ctx context.Context, post *model.Post, media []model.PostMedia) error
	getByIDFn         func(ctx context.Context, postID int64) (*model.Post, error)
	listFn            func(ctx context.Context) ([]model.Post, error)
	getRepliesFn      func(ctx context.Context, parentID int64) ([]model.Post, error)
	updateFn          func(ctx context.Context, postID int64, content *string, removeRefs []string, add []model.PostMedia) error
	deleteFn          func(ctx context.Context, post *model.Post) error
	findRepostFn      func(ctx context.Context, originalID, actorID int64) (*model.Post, error)
	toggleReactionFn  func(ctx context.Context, postID, userID int64, kind string) (bool, error)
	addReactionFn     func(ctx context.Context, postID, userID int64, kind string) (bool, error)
	removeReactionFn  func(ctx context.Context, postID, userID int64, kind string) (bool, error)
	checkReactionsFn  func(ctx context.Context, userID int64, postIDs []int64, kind string) (map[int64]bool, error)
	mediaRefsByUserFn func(ctx context.Context, userID int64) ([]model.PostMedia, error)

	createCalls []*model.Post
	deleteCalls []*model.Post
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post, media []model.PostMedia) error {
	m.createCalls = append(m.createCalls, post)
	if m.createFn != nil {
		return m.createFn(ctx, post, media)
	}
	post.ID = int64(len(m.createCalls))
	post.Media = media
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) List(ctx context.Context) ([]model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPostRepository) GetReplies(ctx context.Context, parentID int64) ([]model.Post, error) {
	if m.getRepliesFn != nil {
		return m.getRepliesFn(ctx, parentID)
	}
	return nil, nil
}

func (m *mockPostRepository) Update(ctx context.Context, postID int64, content *string, removeRefs []string, add []model.PostMedia) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, postID, content, removeRefs, add)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, post *model.Post) error {
	m.deleteCalls = append(m.deleteCalls, post)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) FindRepostByActor(ctx context.Context, originalID, actorID int64) (*model.Post, error) {
	if m.findRepostFn != nil {
		return m.findRepostFn(ctx, originalID, actorID)
	}
	return nil, nil
}

func (m *mockPostRepository) ToggleReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	if m.toggleReactionFn != nil {
		return m.toggleReactionFn(ctx, postID, userID, kind)
	}
	return true, nil
}

func (m *mockPostRepository) AddReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	if m.addReactionFn != nil {
		return m.addReactionFn(ctx, postID, userID, kind)
	}
	return true, nil
}

func (m *mockPostRepository) RemoveReaction(ctx context.Context, postID, userID int64, kind string) (bool, error) {
	if m.removeReactionFn != nil {
		return m.removeReactionFn(ctx, postID, userID, kind)
	}
	return true, nil
}

func (m *mockPostRepository) CheckReactions(ctx context.Context, userID int64, postIDs []int64, kind string) (map[int64]bool, error) {
	if m.checkReactionsFn != nil {
		return m.checkReactionsFn(ctx, userID, postIDs, kind)
	}
	return map[int64]bool{}, nil
}

func (m *mockPostRepository) MediaRefsByUser(ctx context.Context, userID int64) ([]model.PostMedia, error) {
	if m.mediaRefsByUserFn != nil {
		return m.mediaRefsByUserFn(ctx, userID)
	}
	return nil, nil
}

// mockBlobStore is an in-memory blob.Store that records refs it serves.
type mockBlobStore struct {
	uploadFn func(ctx context.Context, f blob.File, folder string) (string, error)
	readFn   func(ctx context.Context, ref string) ([]byte, error)

	uploads int
	deleted []string
}

func (m *mockBlobStore) Upload(ctx context.Context, f blob.File, folder string) (string, error) {
	m.uploads++
	if m.uploadFn != nil {
		return m.uploadFn(ctx, f, folder)
	}
	return fmt.Sprintf("https://blobs.test/%s/%d", folder, m.uploads), nil
}

func (m *mockBlobStore) UploadMany(ctx context.Context, files []blob.File, folder string) ([]string, error) {
	if len(files) > model.MaxPostMediaCount {
		return nil, model.ErrMediaLimitExceeded
	}
	refs := make([]string, 0, len(files))
	for _, f := range files {
		ref, err := m.Upload(ctx, f, folder)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *mockBlobStore) Delete(ctx context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockBlobStore) Read(ctx context.Context, ref string) ([]byte, error) {
	if m.readFn != nil {
		return m.readFn(ctx, ref)
	}
	return []byte("\xff\xd8\xffpayload:" + ref), nil
}

// mockMediaCache is a map-backed cache.MediaCache.
type mockMediaCache struct {
	entries map[string][]byte
	deleted []string
}

func newMockMediaCache() *mockMediaCache {
	return &mockMediaCache{entries: make(map[string][]byte)}
}

func (m *mockMediaCache) Get(ctx context.Context, ref string) ([]byte, bool, error) {
	payload, found := m.entries[ref]
	return payload, found, nil
}

func (m *mockMediaCache) Set(ctx context.Context, ref string, payload []byte) error {
	m.entries[ref] = payload
	return nil
}

func (m *mockMediaCache) Del(ctx context.Context, refs ...string) error {
	for _, ref := range refs {
		delete(m.entries, ref)
		m.deleted = append(m.deleted, ref)
	}
	return nil
}

func newTestMediaService(store *mockBlobStore, mediaCache *mockMediaCache) *MediaService {
	return NewMediaService(store, mediaCache, logger.NewLogger())
}

// testJPEG builds a tiny real JPEG so avatar normalization can decode it.
func testJPEG(t *testing.T) blob.File {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return blob.File{Name: "photo.jpg", ContentType: "image/jpeg", Data: buf.Bytes()}
}
