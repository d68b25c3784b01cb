package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bizdir/admin-server/internal/config"
	apperrors "github.com/bizdir/admin-server/internal/errors"
)

const (
	businessDir = "businesses"
	// URLPrefix is where saved files are served from.
	URLPrefix = "/uploads"
)

var allowedTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
}

// SavedImage is a file written to disk and the public URL it is served at.
type SavedImage struct {
	URL          string
	OriginalName string
	path         string
}

// ImageStore writes business images below <root>/businesses.
type ImageStore struct {
	root     string
	maxSize  int64
	maxFiles int
}

func NewImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Join(root, businessDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{
		root:     root,
		maxSize:  config.MaxImageSize,
		maxFiles: config.MaxImagesPerUpload,
	}, nil
}

func (s *ImageStore) Root() string {
	return s.root
}

// Validate checks count, size, extension and sniffed content type of every
// file before anything is written.
func (s *ImageStore) Validate(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return apperrors.ValidationError("No images uploaded")
	}
	if len(files) > s.maxFiles {
		return apperrors.ValidationError(fmt.Sprintf("At most %d images can be uploaded at once", s.maxFiles))
	}

	var fields []apperrors.FieldError
	for _, fh := range files {
		if err := s.validateFile(fh); err != nil {
			fields = append(fields, apperrors.FieldError{Field: fh.Filename, Message: err.Error()})
		}
	}
	if len(fields) > 0 {
		return apperrors.InvalidFields(fields)
	}
	return nil
}

func (s *ImageStore) validateFile(fh *multipart.FileHeader) error {
	if fh.Size > s.maxSize {
		return fmt.Errorf("file exceeds %d bytes", s.maxSize)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mimes, ok := allowedTypes[ext]
	if !ok {
		return errors.New("only jpeg, jpg, png, gif and webp images are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return errors.New("file could not be read")
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return errors.New("file could not be read")
	}
	detected := http.DetectContentType(head[:n])
	for _, m := range mimes {
		if detected == m {
			return nil
		}
	}
	return fmt.Errorf("content does not match %s", ext)
}

// Save writes all files. On error every file already written is removed.
func (s *ImageStore) Save(files []*multipart.FileHeader) ([]SavedImage, error) {
	saved := make([]SavedImage, 0, len(files))
	for _, fh := range files {
		img, err := s.saveOne(fh)
		if err != nil {
			s.RemoveAll(saved)
			return nil, err
		}
		saved = append(saved, img)
	}
	return saved, nil
}

func (s *ImageStore) saveOne(fh *multipart.FileHeader) (SavedImage, error) {
	name := "images-" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(s.root, businessDir, name)

	src, err := fh.Open()
	if err != nil {
		return SavedImage{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return SavedImage{}, fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(out, io.LimitReader(src, s.maxSize+1)); err != nil {
		out.Close()
		os.Remove(dst)
		return SavedImage{}, fmt.Errorf("write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return SavedImage{}, fmt.Errorf("close image file: %w", err)
	}

	return SavedImage{
		URL:          path.Join(URLPrefix, businessDir, name),
		OriginalName: filepath.Base(fh.Filename),
		path:         dst,
	}, nil
}

// RemoveAll is the compensating delete for a failed upload.
func (s *ImageStore) RemoveAll(images []SavedImage) {
	for _, img := range images {
		_ = os.Remove(img.path)
	}
}

// Remove deletes the file behind a public image URL. A missing file is not
// an error; URLs outside the business image directory are rejected.
func (s *ImageStore) Remove(imageURL string) error {
	prefix := path.Join(URLPrefix, businessDir) + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return fmt.Errorf("image url %q is outside %s", imageURL, prefix)
	}
	name := strings.TrimPrefix(imageURL, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("invalid image url %q", imageURL)
	}

	err := os.Remove(filepath.Join(s.root, businessDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
