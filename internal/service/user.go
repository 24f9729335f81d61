package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"chirper-api/internal/blob"
	"chirper-api/internal/model"
	"chirper-api/internal/repository"
	"chirper-api/pkg/logger"
)

// UserService handles business logic for user operations
type UserService struct {
	repo     repository.UserRepository
	postRepo repository.PostRepository
	store    blob.Store
	media    *MediaService
	log      *logger.Logger
}

func NewUserService(repo repository.UserRepository, postRepo repository.PostRepository, store blob.Store, media *MediaService, log *logger.Logger) *UserService {
	return &UserService{
		repo:     repo,
		postRepo: postRepo,
		store:    store,
		media:    media,
		log:      log,
	}
}

// Register creates a new account. When an avatar file is provided it is
// normalized and uploaded first, so a storage failure aborts the sign-up.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest, avatar *blob.File) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Fullname) == "" ||
		strings.TrimSpace(req.Password) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.DateOfBirth) == "" {
		return nil, model.ErrMissingFields
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateUser
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if avatar != nil {
		normalized, err := NormalizeAvatar(*avatar)
		if err != nil {
			return nil, err
		}
		ref, err := s.store.Upload(ctx, normalized, blob.FolderAvatars)
		if err != nil {
			return nil, err
		}
		req.AvatarRef = ref
	}

	user := &model.User{
		Username:       req.Username,
		PasswordHashed: string(hashedPassword),
		Email:          req.Email,
		Fullname:       req.Fullname,
		DateOfBirth:    req.DateOfBirth,
		AvatarRef:      req.AvatarRef,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Update applies the provided fields only. A new password is re-hashed;
// username and email collisions surface as ErrDuplicateUser. Replacement
// avatar and header files are uploaded first and the old blob plus its
// cache entry go away once the new one is stored.
func (s *UserService) Update(ctx context.Context, id int64, req *model.UpdateUserRequest, avatar, header *blob.File) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.DateOfBirth != nil {
		user.DateOfBirth = *req.DateOfBirth
	}
	if req.Fullname != nil {
		user.Fullname = *req.Fullname
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHashed = string(hashed)
	}

	if avatar != nil {
		normalized, err := NormalizeAvatar(*avatar)
		if err != nil {
			return nil, err
		}
		ref, err := s.store.Upload(ctx, normalized, blob.FolderAvatars)
		if err != nil {
			return nil, err
		}
		s.replaceBlob(ctx, user.AvatarRef)
		user.AvatarRef = ref
	}

	if header != nil {
		if !strings.HasPrefix(header.ContentType, "image/") {
			return nil, model.ErrInvalidMediaType
		}
		ref, err := s.store.Upload(ctx, *header, blob.FolderHeaders)
		if err != nil {
			return nil, err
		}
		s.replaceBlob(ctx, user.HeaderRef)
		user.HeaderRef = ref
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// replaceBlob drops the previous blob and its cache entry when a new one
// supersedes it. Failures leave an orphan, never a broken profile.
func (s *UserService) replaceBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.store.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithField("ref", ref).Warn("failed to delete replaced blob")
	}
	s.media.Forget(ctx, ref)
}

// Delete removes the account with its posts. Stored blobs and their cache
// entries go first; a blob that fails to delete is logged and skipped so
// the account removal still completes.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	media, err := s.postRepo.MediaRefsByUser(ctx, id)
	if err != nil {
		return err
	}

	refs := make([]string, 0, len(media)+2)
	for _, m := range media {
		refs = append(refs, m.Ref)
	}
	if user.AvatarRef != "" {
		refs = append(refs, user.AvatarRef)
	}
	if user.HeaderRef != "" {
		refs = append(refs, user.HeaderRef)
	}

	for _, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil {
			s.log.WithError(err).WithField("ref", ref).Warn("failed to delete blob during account removal")
		}
	}
	if len(refs) > 0 {
		s.media.Forget(ctx, refs...)
	}

	return s.repo.Delete(ctx, id)
}

// ToggleFollow flips whether the actor follows the target. Returns the
// follow state after the toggle.
func (s *UserService) ToggleFollow(ctx context.Context, targetID, actorID int64) (bool, error) {
	if targetID == actorID {
		return false, model.ErrSelfFollow
	}

	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		return false, err
	}

	return s.repo.ToggleFollow(ctx, targetID, actorID)
}

// UploadAvatar sets the user's avatar through the dedicated route, which
// refuses to overwrite an existing one.
func (s *UserService) UploadAvatar(ctx context.Context, username string, f blob.File) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.AvatarRef != "" {
		return nil, model.ErrAvatarExists
	}

	normalized, err := NormalizeAvatar(f)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Upload(ctx, normalized, blob.FolderAvatars)
	if err != nil {
		return nil, err
	}

	user.AvatarRef = ref
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UploadHeader sets the user's header photo; like avatars, the dedicated
// route never overwrites. Headers are stored as uploaded, no resizing.
func (s *UserService) UploadHeader(ctx context.Context, username string, f blob.File) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.HeaderRef != "" {
		return nil, model.ErrHeaderExists
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return nil, model.ErrInvalidMediaType
	}

	ref, err := s.store.Upload(ctx, f, blob.FolderHeaders)
	if err != nil {
		return nil, err
	}

	user.HeaderRef = ref
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.AvatarRef == "" {
		return nil, model.ErrNoAvatar
	}

	ref := user.AvatarRef
	if err := s.store.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithField("ref", ref).Warn("failed to delete avatar blob")
	}
	s.media.Forget(ctx, ref)

	user.AvatarRef = ""
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) DeleteHeader(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.HeaderRef == "" {
		return nil, model.ErrNoHeader
	}

	ref := user.HeaderRef
	if err := s.store.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithField("ref", ref).Warn("failed to delete header blob")
	}
	s.media.Forget(ctx, ref)

	user.HeaderRef = ""
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
