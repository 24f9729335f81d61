package model

import (
	"errors"
	"time"
)

// User represents an account in the system. Avatar and header are opaque
// blob references (empty string means none); follower/following edges live
// in the follows table with denormalized counters kept here.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	PasswordHashed string    `db:"password_hashed" json:"-"`
	Email          string    `db:"email" json:"email"`
	Fullname       string    `db:"fullname" json:"fullname"`
	DateOfBirth    string    `db:"date_of_birth" json:"dateOfBirth"`
	Bio            string    `db:"bio" json:"bio"`
	Location       string    `db:"location" json:"location"`
	Website        string    `db:"website" json:"website"`
	AvatarRef      string    `db:"avatar_ref" json:"avatar"`
	HeaderRef      string    `db:"header_ref" json:"header_photo"`
	Verified       bool      `db:"verified" json:"verified"`
	PostCount      int       `db:"post_count" json:"postCount"`
	FollowerCount  int       `db:"follower_count" json:"followerCount"`
	FollowingCount int       `db:"following_count" json:"followingCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the author display data attached to posts.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Fullname string `db:"fullname" json:"fullname"`
	Verified bool   `db:"verified" json:"verified"`

	// AvatarRef is the stored blob reference; CachedAvatar is the resolved
	// base64 payload attached on read paths.
	AvatarRef    string `db:"avatar_ref" json:"avatar"`
	CachedAvatar string `db:"-" json:"cachedAvatar,omitempty"`
}

// RegisterRequest carries the fields of a multipart sign-up. The avatar
// reference is filled in after the optional file upload.
type RegisterRequest struct {
	Username    string
	Fullname    string
	Password    string
	Email       string
	DateOfBirth string
	AvatarRef   string
}

// UpdateUserRequest is a selective patch: nil means "leave unchanged".
type UpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	DateOfBirth *string `json:"dateOfBirth"`
	Fullname    *string `json:"fullname"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	Password    *string `json:"password"`
}

// LoginRequest is the two-step login body: step 1 resolves the account by
// username or email, step 2 verifies the password.
type LoginRequest struct {
	Step     int    `json:"step"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair bundles the signed tokens issued by login and refresh. The
// refresh token travels in an http-only cookie, never in the body.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
	ExpiresIn    int    `json:"expiresIn"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned on a case-insensitive username or email collision
	ErrDuplicateUser = errors.New("duplicate username or email")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingFields is returned when a required registration field is blank
	ErrMissingFields = errors.New("username, fullname, password, email and date of birth are required")

	// ErrSelfFollow is returned when a user tries to follow themselves
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrInvalidToken is returned for malformed or expired JWTs
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrAlreadyVerified is returned when subscribing an already verified user
	ErrAlreadyVerified = errors.New("user is already verified")

	// ErrAvatarExists is returned by the dedicated upload route when an avatar is already set
	ErrAvatarExists = errors.New("avatar already set")

	// ErrHeaderExists is returned by the dedicated upload route when a header photo is already set
	ErrHeaderExists = errors.New("header photo already set")

	// ErrNoAvatar is returned when deleting an avatar that is not set
	ErrNoAvatar = errors.New("no avatar to delete")

	// ErrNoHeader is returned when deleting a header photo that is not set
	ErrNoHeader = errors.New("no header photo to delete")
)
