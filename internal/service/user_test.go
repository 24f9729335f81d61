package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"chirper-api/internal/model"
	"chirper-api/pkg/logger"
)

func newTestUserService(users *mockUserRepository, posts *mockPostRepository, store *mockBlobStore) (*UserService, *mockMediaCache) {
	mediaCache := newMockMediaCache()
	media := newTestMediaService(store, mediaCache)
	return NewUserService(users, posts, store, media, logger.NewLogger()), mediaCache
}

func TestUserService_Register_Success(t *testing.T) {
	users := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	req := &model.RegisterRequest{
		Username:    "jdoe",
		Fullname:    "Jane Doe",
		Password:    "securepassword123",
		Email:       "jane@example.com",
		DateOfBirth: "1999-04-12",
	}

	user, err := svc.Register(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Username != req.Username {
		t.Errorf("username = %q, want %q", user.Username, req.Username)
	}
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}
	if len(users.createCalls) != 1 {
		t.Fatalf("Create called %d times, want 1", len(users.createCalls))
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	svc, _ := newTestUserService(&mockUserRepository{}, &mockPostRepository{}, &mockBlobStore{})

	cases := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"no username", model.RegisterRequest{Fullname: "J", Password: "p", Email: "e@x.com", DateOfBirth: "2000-01-01"}},
		{"no fullname", model.RegisterRequest{Username: "j", Password: "p", Email: "e@x.com", DateOfBirth: "2000-01-01"}},
		{"no password", model.RegisterRequest{Username: "j", Fullname: "J", Email: "e@x.com", DateOfBirth: "2000-01-01"}},
		{"no email", model.RegisterRequest{Username: "j", Fullname: "J", Password: "p", DateOfBirth: "2000-01-01"}},
		{"no date of birth", model.RegisterRequest{Username: "j", Fullname: "J", Password: "p", Email: "e@x.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			if _, err := svc.Register(context.Background(), &req, nil); !errors.Is(err, model.ErrMissingFields) {
				t.Errorf("err = %v, want ErrMissingFields", err)
			}
		})
	}
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	users := &mockUserRepository{
		existsPairFn: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	req := &model.RegisterRequest{
		Username:    "jdoe",
		Fullname:    "Jane Doe",
		Password:    "pw",
		Email:       "jane@example.com",
		DateOfBirth: "1999-04-12",
	}

	if _, err := svc.Register(context.Background(), req, nil); !errors.Is(err, model.ErrDuplicateUser) {
		t.Errorf("err = %v, want ErrDuplicateUser", err)
	}
	if len(users.createCalls) != 0 {
		t.Error("Create should not be called for a duplicate username")
	}
}

func TestUserService_Update_PartialPatch(t *testing.T) {
	existing := &model.User{
		ID:       7,
		Username: "jdoe",
		Email:    "jane@example.com",
		Fullname: "Jane Doe",
		Bio:      "old bio",
		Location: "Hanoi",
	}
	users := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			u := *existing
			return &u, nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	bio := "new bio"
	updated, err := svc.Update(context.Background(), 7, &model.UpdateUserRequest{Bio: &bio}, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.Bio != "new bio" {
		t.Errorf("bio = %q, want %q", updated.Bio, "new bio")
	}
	// Untouched fields stay as they were
	if updated.Location != "Hanoi" || updated.Fullname != "Jane Doe" {
		t.Error("fields outside the patch must not change")
	}
}

func TestUserService_Update_ReplacedAvatarInvalidatesOld(t *testing.T) {
	existing := &model.User{ID: 7, Username: "jdoe", AvatarRef: "https://blobs.test/avatars/old"}
	users := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			u := *existing
			return &u, nil
		},
	}
	store := &mockBlobStore{}
	svc, mediaCache := newTestUserService(users, &mockPostRepository{}, store)
	mediaCache.entries[existing.AvatarRef] = []byte("stale")

	avatar := testJPEG(t)
	updated, err := svc.Update(context.Background(), 7, &model.UpdateUserRequest{}, &avatar, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.AvatarRef == existing.AvatarRef || updated.AvatarRef == "" {
		t.Errorf("avatar ref = %q, want a fresh reference", updated.AvatarRef)
	}
	if len(store.deleted) != 1 || store.deleted[0] != existing.AvatarRef {
		t.Errorf("deleted = %v, want the old avatar blob", store.deleted)
	}
	if _, cached := mediaCache.entries[existing.AvatarRef]; cached {
		t.Error("stale cache entry for the old avatar must be dropped")
	}
}

func TestUserService_Delete_CascadesBlobsAndCache(t *testing.T) {
	users := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{
				ID:        4,
				Username:  "jdoe",
				AvatarRef: "https://blobs.test/avatars/a",
				HeaderRef: "https://blobs.test/headers/h",
			}, nil
		},
	}
	posts := &mockPostRepository{
		mediaRefsByUserFn: func(ctx context.Context, userID int64) ([]model.PostMedia, error) {
			return []model.PostMedia{
				{Ref: "https://blobs.test/posts/1"},
				{Ref: "https://blobs.test/posts/2"},
			}, nil
		},
	}
	store := &mockBlobStore{}
	svc, mediaCache := newTestUserService(users, posts, store)
	mediaCache.entries["https://blobs.test/posts/1"] = []byte("x")

	if err := svc.Delete(context.Background(), 4); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(store.deleted) != 4 {
		t.Errorf("deleted %d blobs, want 4 (2 post media + avatar + header)", len(store.deleted))
	}
	if len(users.deleteCalls) != 1 || users.deleteCalls[0] != 4 {
		t.Errorf("repo delete calls = %v, want [4]", users.deleteCalls)
	}
	if _, cached := mediaCache.entries["https://blobs.test/posts/1"]; cached {
		t.Error("cache entries for the user's media must be dropped")
	}
}

func TestUserService_ToggleFollow_Self(t *testing.T) {
	users := &mockUserRepository{}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	if _, err := svc.ToggleFollow(context.Background(), 3, 3); !errors.Is(err, model.ErrSelfFollow) {
		t.Errorf("err = %v, want ErrSelfFollow", err)
	}
	if len(users.toggleFollowCalls) != 0 {
		t.Error("repository must not be touched on a self follow")
	}
}

func TestUserService_ToggleFollow_TargetMissing(t *testing.T) {
	svc, _ := newTestUserService(&mockUserRepository{}, &mockPostRepository{}, &mockBlobStore{})

	if _, err := svc.ToggleFollow(context.Background(), 99, 3); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUserService_UploadAvatar_AlreadySet(t *testing.T) {
	users := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: 1, Username: username, AvatarRef: "https://blobs.test/avatars/a"}, nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	if _, err := svc.UploadAvatar(context.Background(), "jdoe", testJPEG(t)); !errors.Is(err, model.ErrAvatarExists) {
		t.Errorf("err = %v, want ErrAvatarExists", err)
	}
}

func TestUserService_DeleteAvatar_NoneSet(t *testing.T) {
	users := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: 1, Username: username}, nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	if _, err := svc.DeleteAvatar(context.Background(), "jdoe"); !errors.Is(err, model.ErrNoAvatar) {
		t.Errorf("err = %v, want ErrNoAvatar", err)
	}
}

func TestUserService_UploadHeader_RejectsNonImage(t *testing.T) {
	users := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: 1, Username: username}, nil
		},
	}
	svc, _ := newTestUserService(users, &mockPostRepository{}, &mockBlobStore{})

	file := testJPEG(t)
	file.ContentType = "application/pdf"
	if _, err := svc.UploadHeader(context.Background(), "jdoe", file); !errors.Is(err, model.ErrInvalidMediaType) {
		t.Errorf("err = %v, want ErrInvalidMediaType", err)
	}
}
