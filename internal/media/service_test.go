package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeStore struct {
	uploads   []string
	deleted   []string
	failAfter int
	deleteErr error
}

func (f *fakeStore) Upload(_ context.Context, folder, filename, contentType string, body io.Reader) (types.Image, error) {
	if f.failAfter >= 0 && len(f.uploads) >= f.failAfter {
		return types.Image{}, errors.New("bucket unavailable")
	}
	if _, err := io.ReadAll(body); err != nil {
		return types.Image{}, err
	}
	id := folder + "/" + filename
	f.uploads = append(f.uploads, id)
	return types.Image{URL: "https://img.test/" + id, PublicID: id}, nil
}

func (f *fakeStore) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return f.deleteErr
}

func newTestService(t *testing.T, store *fakeStore) Service {
	t.Helper()
	svc, err := NewService(store, 1<<20, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func pngUpload(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)}
}

func TestUploadImagesStoresEveryFile(t *testing.T) {
	store := &fakeStore{failAfter: -1}
	svc := newTestService(t, store)

	images, err := svc.UploadImages(context.Background(), FolderProducts, []Upload{pngUpload("a.png"), pngUpload("b")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[1].PublicID != "products/b.png" {
		t.Fatalf("expected extension from sniffed type, got %q", images[1].PublicID)
	}
}

func TestUploadImagesRejectsNonImages(t *testing.T) {
	store := &fakeStore{failAfter: -1}
	svc := newTestService(t, store)

	_, err := svc.UploadImages(context.Background(), FolderProducts, []Upload{
		pngUpload("ok.png"),
		{Filename: "evil.png", ContentType: "image/png", Size: 20, Body: bytes.NewReader([]byte("<html><body>hi</body></html>"))},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.uploads) != 0 {
		t.Fatalf("expected nothing uploaded, got %v", store.uploads)
	}
}

func TestUploadImagesRejectsOversizedFiles(t *testing.T) {
	svc := newTestService(t, &fakeStore{failAfter: -1})
	upload := pngUpload("big.png")
	upload.Size = 2 << 20
	if _, err := svc.UploadImages(context.Background(), FolderProfiles, []Upload{upload}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadImagesCleansUpOnFailure(t *testing.T) {
	store := &fakeStore{failAfter: 1}
	svc := newTestService(t, store)

	_, err := svc.UploadImages(context.Background(), FolderProducts, []Upload{pngUpload("a.png"), pngUpload("b.png")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "products/a.png" {
		t.Fatalf("expected first upload removed, got %v", store.deleted)
	}
}

func TestDeleteImagesCombinesErrors(t *testing.T) {
	store := &fakeStore{failAfter: -1, deleteErr: errors.New("forbidden")}
	svc := newTestService(t, store)

	err := svc.DeleteImages(context.Background(), []string{"a", "", "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected both ids attempted, got %v", store.deleted)
	}
}
