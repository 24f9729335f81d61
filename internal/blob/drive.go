package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"chirper-api/internal/config"
	"chirper-api/pkg/logger"
)

// driveRefPrefix is the stable share-URL form stored as a reference.
const driveRefPrefix = "https://drive.google.com/uc?id="

// DriveStore stores media in Google Drive folders. References are share
// URLs carrying the file id, so deletes and reads recover the id from the
// reference itself.
type DriveStore struct {
	service *drive.Service
	folders map[string]string
	log     *logger.Logger
}

// NewDriveStore constructs a Drive client from a service-account
// credentials file and maps the logical folders to configured folder IDs.
func NewDriveStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DriveStore, error) {
	if cfg.DriveCredentialsFile == "" {
		return nil, fmt.Errorf("missing Google Drive credentials file")
	}

	service, err := drive.NewService(ctx,
		option.WithCredentialsFile(cfg.DriveCredentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStore{
		service: service,
		folders: map[string]string{
			FolderAvatars:   cfg.DriveAvatarFolderID,
			FolderHeaders:   cfg.DriveHeaderFolderID,
			FolderPostMedia: cfg.DrivePostFolderID,
		},
		log: log,
	}, nil
}

func (d *DriveStore) Upload(ctx context.Context, f File, folder string) (string, error) {
	meta := &drive.File{
		Name: fmt.Sprintf("%d-%s", time.Now().UnixMilli(), f.Name),
	}
	if folderID := d.folders[folder]; folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := d.service.Files.Create(meta).
		Media(bytes.NewReader(f.Data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload file to drive: %w", err)
	}

	d.log.WithField("file_id", created.Id).Info("uploaded file to drive")
	return driveRefPrefix + created.Id, nil
}

func (d *DriveStore) UploadMany(ctx context.Context, files []File, folder string) ([]string, error) {
	if err := validateBatch(files); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(files))
	for _, f := range files {
		ref, err := d.Upload(ctx, f, folder)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (d *DriveStore) Delete(ctx context.Context, ref string) error {
	fileID := fileIDFromRef(ref)
	if fileID == "" {
		return nil
	}

	if err := d.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file from drive: %w", err)
	}

	d.log.WithField("file_id", fileID).Info("deleted file from drive")
	return nil
}

func (d *DriveStore) Read(ctx context.Context, ref string) ([]byte, error) {
	fileID := fileIDFromRef(ref)
	if fileID == "" {
		return nil, fmt.Errorf("invalid drive reference: %q", ref)
	}

	resp, err := d.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file from drive: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive file body: %w", err)
	}
	return data, nil
}

// fileIDFromRef extracts the drive file id from a stored reference.
func fileIDFromRef(ref string) string {
	_, id, found := strings.Cut(ref, "id=")
	if !found {
		return ""
	}
	return id
}
