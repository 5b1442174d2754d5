package uploads

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// URLPrefix is where stored images are served.
const URLPrefix = "/static/images/"

const maxImageBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store keeps uploaded images in one directory per user.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload dir %q", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes the file under a fresh name and returns its public URL.
func (s *Store) Save(userID string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", apperr.Validation("unsupported image type %q", ext)
	}
	if fh.Size > maxImageBytes {
		return "", apperr.Validation("image must be at most %d MB", maxImageBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	userDir := filepath.Join(s.dir, userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating user upload dir")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(userDir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating image file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing image file")
	}
	return URLPrefix + userID + "/" + name, nil
}

// Remove deletes the file behind a URL returned by Save. Unknown URLs are ignored.
func (s *Store) Remove(url string) {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return
	}
	path := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.Warn(errors.Wrapf(err, "removing image %s", path))
	}
}

// RemoveUser deletes every image stored for userID.
func (s *Store) RemoveUser(userID string) {
	if userID == "" || strings.ContainsAny(userID, `/\.`) {
		return
	}
	if err := os.RemoveAll(filepath.Join(s.dir, userID)); err != nil {
		logrus.Warn(errors.Wrapf(err, "removing images for user %s", userID))
	}
}
