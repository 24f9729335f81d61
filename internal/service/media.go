package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"chirper-api/internal/blob"
	"chirper-api/internal/cache"
	"chirper-api/internal/model"
	"chirper-api/pkg/logger"
)

// MediaService resolves blob references into payloads clients render
// directly: base64 data URIs for images, the reference URL for videos.
// Image resolution goes through a best-effort read-through cache.
type MediaService struct {
	store blob.Store
	cache cache.MediaCache
	log   *logger.Logger
}

func NewMediaService(store blob.Store, mediaCache cache.MediaCache, log *logger.Logger) *MediaService {
	return &MediaService{
		store: store,
		cache: mediaCache,
		log:   log,
	}
}

// ResolveImage returns a base64 data URI for the referenced image.
// An empty reference resolves to "". Cache failures fall back to the blob
// store; blob failures are returned to the caller.
func (s *MediaService) ResolveImage(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	if payload, found, err := s.cache.Get(ctx, ref); err == nil && found {
		return string(payload), nil
	}

	data, err := s.store.Read(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}

	uri := dataURI(data)
	if err := s.cache.Set(ctx, ref, []byte(uri)); err != nil {
		s.log.WithError(err).WithField("ref", ref).Warn("failed to cache resolved image")
	}

	return uri, nil
}

// DecorateMedia fills Src for each attachment: resolved data URI for
// images, the reference itself for videos. A failed image resolution logs
// and degrades to the reference.
func (s *MediaService) DecorateMedia(ctx context.Context, media []model.PostMedia) {
	for i := range media {
		if media[i].MediaType != model.MediaTypeImage {
			media[i].Src = media[i].Ref
			continue
		}
		src, err := s.ResolveImage(ctx, media[i].Ref)
		if err != nil {
			s.log.WithError(err).WithField("ref", media[i].Ref).Warn("failed to resolve post media")
			src = media[i].Ref
		}
		media[i].Src = src
	}
}

// DecorateAuthor resolves the author's avatar into CachedAvatar.
func (s *MediaService) DecorateAuthor(ctx context.Context, author *model.UserSummary) {
	if author == nil || author.AvatarRef == "" {
		return
	}
	src, err := s.ResolveImage(ctx, author.AvatarRef)
	if err != nil {
		s.log.WithError(err).WithField("ref", author.AvatarRef).Warn("failed to resolve author avatar")
		return
	}
	author.CachedAvatar = src
}

// DecorateSnapshot resolves the snapshot author's avatar into CachedAvatar.
func (s *MediaService) DecorateSnapshot(ctx context.Context, snap *model.PostSnapshot) {
	if snap == nil || snap.AvatarRef == "" {
		return
	}
	src, err := s.ResolveImage(ctx, snap.AvatarRef)
	if err != nil {
		s.log.WithError(err).WithField("ref", snap.AvatarRef).Warn("failed to resolve snapshot avatar")
		return
	}
	snap.CachedAvatar = src
}

// Forget drops cache entries for blob references that were deleted or
// replaced. Best-effort, a failure just means a stale entry ages out.
func (s *MediaService) Forget(ctx context.Context, refs ...string) {
	if err := s.cache.Del(ctx, refs...); err != nil {
		s.log.WithError(err).Warn("failed to invalidate media cache")
	}
}

// NormalizeAvatar decodes the uploaded image, crops it to a centered
// square at the standard avatar size and re-encodes as JPEG.
func NormalizeAvatar(f blob.File) (blob.File, error) {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return blob.File{}, model.ErrInvalidMediaType
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return blob.File{}, fmt.Errorf("decode avatar: %w", err)
	}

	resized := imaging.Fill(img, model.AvatarWidth, model.AvatarHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(model.AvatarJPEGQuality)); err != nil {
		return blob.File{}, fmt.Errorf("encode avatar: %w", err)
	}

	name := f.Name
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}

	return blob.File{
		Name:        name + ".jpg",
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// dataURI wraps raw image bytes as a base64 data URI, sniffing the type
// from the content.
func dataURI(data []byte) string {
	contentType := sniffImageType(data)
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func sniffImageType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) > 11 && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
