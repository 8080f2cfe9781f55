package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/pkg/storage"
)

const (
	maxUploadSize    = 10 << 20
	maxMultipartSize = 50 << 20
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

var (
	errUnsupportedType = errors.New("only PDF, JPEG and PNG files are accepted")
	errTooLarge        = errors.New("file exceeds 10 MB")
)

// saveUpload sniffs the file type and stores it through Store.
func saveUpload(ctx context.Context, fh *multipart.FileHeader) (storage.Object, error) {
	if fh.Size == 0 {
		return storage.Object{}, fmt.Errorf("%s: %w", fh.Filename, storage.ErrEmptyFile)
	}
	if fh.Size > maxUploadSize {
		return storage.Object{}, fmt.Errorf("%s: %w", fh.Filename, errTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return storage.Object{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return storage.Object{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	contentType := http.DetectContentType(head[:n])
	if !allowedUploadTypes[contentType] {
		return storage.Object{}, fmt.Errorf("%s: %w", fh.Filename, errUnsupportedType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return storage.Object{}, fmt.Errorf("rewind %s: %w", fh.Filename, err)
	}
	return Store.Save(ctx, fh.Filename, contentType, f)
}

// discardUploads removes stored files after a failed submission. Failures
// are only logged.
func discardUploads(ctx context.Context, objs []storage.Object) {
	for _, o := range objs {
		if err := Store.Delete(ctx, o.Name); err != nil {
			config.Log.Warn("orphaned upload", zap.String("file", o.Name), zap.Error(err))
		}
	}
}

// UploadFileHandler stores a single "file" part and returns where it lives.
func UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartSize)
	if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	_, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	obj, err := saveUpload(r.Context(), fh)
	if err != nil {
		if errors.Is(err, errUnsupportedType) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		if errors.Is(err, errTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		if errors.Is(err, storage.ErrEmptyFile) {
			writeError(w, http.StatusBadRequest, "file is empty")
			return
		}
		config.Log.Error("upload", zap.String("file", fh.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}
