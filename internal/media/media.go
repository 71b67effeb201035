// Package media places uploaded files on local disk and derives the public
// URL they are served under.  The folder is chosen from the multipart field
// name; stored names are prefixed with the upload time in milliseconds.
package media

import (
    "fmt"
    "io"
    "mime/multipart"
    "os"
    "path/filepath"
    "time"

    "github.com/pkg/errors"
)

// Field names the upload forms use.
const (
    FieldGameFile    = "gameFile"
    FieldImage       = "image"
    FieldTrailer     = "trailer"
    FieldScreenshots = "screenshots"
)

// FolderFor maps a multipart field name to the folder its files land in.
func FolderFor(field string) string {
    switch field {
    case FieldGameFile:
        return "games"
    case FieldImage, FieldScreenshots:
        return "images"
    case FieldTrailer:
        return "video"
    default:
        return "uploads"
    }
}

// StoredName builds the on-disk name: <unix millis>-<base of original>.
// Directory components of the client supplied name are dropped.
func StoredName(t time.Time, original string) string {
    return fmt.Sprintf("%d-%s", t.UnixMilli(), filepath.Base(original))
}

// StoredFile describes a file after it was written.
type StoredFile struct {
    Path string // location on disk
    URL  string // public path, e.g. /images/1700000000000-cover.png
}

// Store writes uploads under Root.  Two uploads with the same name in the
// same millisecond overwrite each other; there is no deduplication.
type Store struct {
    Root string
    Now  func() time.Time
}

func NewStore(root string) *Store {
    if root == "" {
        root = "."
    }
    return &Store{Root: root, Now: time.Now}
}

// Save copies fh into the folder for field, creating the folder if needed.
func (s *Store) Save(field string, fh *multipart.FileHeader) (StoredFile, error) {
    folder := FolderFor(field)
    dir := filepath.Join(s.Root, folder)
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return StoredFile{}, errors.Wrapf(err, "create %s", dir)
    }

    name := StoredName(s.Now(), fh.Filename)
    src, err := fh.Open()
    if err != nil {
        return StoredFile{}, errors.Wrap(err, "open upload")
    }
    defer src.Close()

    path := filepath.Join(dir, name)
    dst, err := os.Create(path)
    if err != nil {
        return StoredFile{}, errors.Wrapf(err, "create %s", path)
    }
    if _, err := io.Copy(dst, src); err != nil {
        dst.Close()
        return StoredFile{}, errors.Wrapf(err, "write %s", path)
    }
    if err := dst.Close(); err != nil {
        return StoredFile{}, errors.Wrapf(err, "close %s", path)
    }
    return StoredFile{Path: path, URL: "/" + folder + "/" + name}, nil
}

// SaveAll stores every file of a field in order and returns their URLs.
func (s *Store) SaveAll(field string, files []*multipart.FileHeader) ([]string, error) {
    urls := make([]string, 0, len(files))
    for _, fh := range files {
        f, err := s.Save(field, fh)
        if err != nil {
            return nil, err
        }
        urls = append(urls, f.URL)
    }
    return urls, nil
}
