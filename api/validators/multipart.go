package validators

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/multierr"

	"github.com/daisydays/daisydays-backend/internal/media"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ParseMultipart caps the body at maxBytes and parses the form.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "upload too large").
				WithDetails(map[string]any{"maxBytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormValue returns a trimmed multipart value and whether the field was sent.
func FormValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

// FormValues returns every value sent for a repeated field.
func FormValues(r *http.Request, key string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	out := make([]string, 0, len(r.MultipartForm.Value[key]))
	for _, v := range r.MultipartForm.Value[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FormFiles opens the uploaded files for a field. Callers must run the returned
// cleanup once the uploads have been consumed.
func FormFiles(r *http.Request, field string) ([]media.Upload, func() error, error) {
	noop := func() error { return nil }
	if r.MultipartForm == nil {
		return nil, noop, nil
	}
	headers := r.MultipartForm.File[field]
	uploads := make([]media.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	cleanup := func() error {
		var err error
		for _, f := range opened {
			err = multierr.Append(err, f.Close())
		}
		return err
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			_ = cleanup()
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
		}
		opened = append(opened, file)
		uploads = append(uploads, media.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	}
	return uploads, cleanup, nil
}
