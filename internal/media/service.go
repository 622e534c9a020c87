package media

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// Folder groups objects on the image host.
type Folder string

const (
	FolderProducts Folder = "products"
	FolderProfiles Folder = "profiles"
)

const sniffLen = 512

// ImageStore is the image host surface, implemented by pkg/storage/gcs.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (types.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// Upload is one file taken from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service uploads and removes shop images.
type Service interface {
	UploadImages(ctx context.Context, folder Folder, files []Upload) (types.Images, error)
	DeleteImages(ctx context.Context, publicIDs []string) error
}

type service struct {
	store    ImageStore
	maxBytes int64
	logg     *logger.Logger
}

func NewService(store ImageStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("image store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg}, nil
}

// UploadImages validates every file before uploading any. When an upload fails the
// files already stored by this call are deleted again.
func (s *service) UploadImages(ctx context.Context, folder Folder, files []Upload) (types.Images, error) {
	if len(files) == 0 {
		return types.Images{}, nil
	}
	prepared := make([]preparedUpload, 0, len(files))
	for _, f := range files {
		p, err := s.prepare(f)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}

	uploaded := make(types.Images, 0, len(prepared))
	for _, p := range prepared {
		img, err := s.store.Upload(ctx, string(folder), p.filename, p.contentType, p.body)
		if err != nil {
			if cleanupErr := s.DeleteImages(ctx, uploaded.PublicIDs()); cleanupErr != nil && s.logg != nil {
				s.logg.Error(ctx, "failed to clean up partial upload", cleanupErr)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
		}
		uploaded = append(uploaded, img)
	}
	return uploaded, nil
}

// DeleteImages attempts every deletion and returns the combined error.
func (s *service) DeleteImages(ctx context.Context, publicIDs []string) error {
	var errs error
	for _, id := range publicIDs {
		if strings.TrimSpace(id) == "" {
			continue
		}
		errs = multierr.Append(errs, s.store.Delete(ctx, id))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "delete images")
	}
	return nil
}

type preparedUpload struct {
	filename    string
	contentType string
	body        io.Reader
}

func (s *service) prepare(f Upload) (preparedUpload, error) {
	if f.Body == nil {
		return preparedUpload{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if f.Size > s.maxBytes {
		return preparedUpload{}, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"file": f.Filename, "maxBytes": s.maxBytes})
	}
	reader := bufio.NewReaderSize(f.Body, sniffLen)
	head, err := reader.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return preparedUpload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file")
	}
	if len(head) == 0 {
		return preparedUpload{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	contentType, err := detectImageType(head)
	if err != nil {
		return preparedUpload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
			WithDetails(map[string]any{"file": f.Filename})
	}
	filename := f.Filename
	if path.Ext(filename) == "" {
		filename += allowedImageTypes[contentType]
	}
	return preparedUpload{
		filename:    filename,
		contentType: contentType,
		body:        io.LimitReader(reader, s.maxBytes),
	}, nil
}
