package model

import "errors"

const (
	// MaxPostMediaCount caps attachments per post, across create and update.
	MaxPostMediaCount = 4

	// MaxUploadSizeBytes limits each uploaded file.
	MaxUploadSizeBytes = 10 * 1024 * 1024

	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Avatar normalization parameters
const (
	AvatarWidth       = 200
	AvatarHeight      = 200
	AvatarJPEGQuality = 85
)

var (
	// ErrInvalidMediaType is returned when an upload is neither image/* nor video/*
	ErrInvalidMediaType = errors.New("invalid media type: only images or videos are allowed")

	// ErrMediaLimitExceeded is returned when a post would carry more than MaxPostMediaCount media
	ErrMediaLimitExceeded = errors.New("media limit exceeded")

	// ErrFileTooLarge is returned when an upload exceeds MaxUploadSizeBytes
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFileUploaded is returned by upload routes that require a file
	ErrNoFileUploaded = errors.New("no file uploaded")
)
