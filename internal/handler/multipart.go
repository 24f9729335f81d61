package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"chirper-api/internal/blob"
	"chirper-api/internal/model"
)

// maxFormSize bounds a whole multipart request: the per-file limit times
// the attachment cap, plus slack for the text fields.
const maxFormSize = int64(model.MaxUploadSizeBytes)*model.MaxPostMediaCount + 1024*1024

// parseMultipart bounds and parses the request form.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return model.ErrFileTooLarge
		}
		return err
	}
	return nil
}

// formFiles loads every upload under the given field into memory,
// enforcing the per-file size limit.
func formFiles(r *http.Request, field string) ([]blob.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	files := make([]blob.File, 0, len(headers))
	for _, header := range headers {
		f, err := loadFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// formFile loads a single optional upload; (nil, nil) when absent.
func formFile(r *http.Request, field string) (*blob.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	f, err := loadFile(r.MultipartForm.File[field][0])
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func loadFile(header *multipart.FileHeader) (blob.File, error) {
	if header.Size > model.MaxUploadSizeBytes {
		return blob.File{}, model.ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return blob.File{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, model.MaxUploadSizeBytes+1))
	if err != nil {
		return blob.File{}, err
	}
	if int64(len(data)) > model.MaxUploadSizeBytes {
		return blob.File{}, model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return blob.File{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
