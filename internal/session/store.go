package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/model"
)

// CacheFileName is the cache file's name inside the process temp directory.
const CacheFileName = "yahoo2fnu_cookie.txt"

// DefaultCachePath returns the default cache location.
func DefaultCachePath() string {
	return filepath.Join(os.TempDir(), CacheFileName)
}

// Store persists a single session token.
type Store interface {
	// Load returns the cached token. A missing entry is KindNotFound; a
	// malformed one is removed and reported as KindCorruptCache.
	Load() (model.SessionToken, error)
	// Save replaces the cached token.
	Save(token model.SessionToken) error
	// Invalidate removes the cached token. Removing a missing entry is not an error.
	Invalidate() error
}

// FileStore keeps the token in a two-line text file: cookie, then crumb.
type FileStore struct {
	Path string
}

// NewFileStore creates a store at path. A blank path selects DefaultCachePath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCachePath()
	}
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (model.SessionToken, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.SessionToken{}, apperr.New(apperr.KindNotFound, "no cached session at %s", s.Path)
		}
		return model.SessionToken{}, apperr.Wrap(apperr.KindIo, err, "read session cache")
	}

	lines := splitLines(string(data))
	if len(lines) != 2 {
		return model.SessionToken{}, s.corrupt("wrong number of lines: %d", len(lines))
	}
	token := model.SessionToken{Cookie: lines[0], Crumb: lines[1]}
	if token.Validate() != nil {
		return model.SessionToken{}, s.corrupt("empty cookie or crumb")
	}
	return token, nil
}

func (s *FileStore) corrupt(format string, args ...any) error {
	err := apperr.New(apperr.KindCorruptCache, "corrupt session cache: "+format, args...)
	return apperr.WithCleanup(err, s.Invalidate())
}

// Save writes to a temp file in the same directory and renames it over the
// cache, so a concurrent reader sees either the old or the new file.
func (s *FileStore) Save(token model.SessionToken) error {
	if err := token.Validate(); err != nil {
		return err
	}
	if strings.ContainsAny(token.Cookie+token.Crumb, "\r\n") {
		return apperr.New(apperr.KindInvalidInput, "session token contains a line break")
	}
	return writeFileAtomic(s.Path, []byte(token.Cookie+"\n"+token.Crumb))
}

func (s *FileStore) Invalidate() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.Wrap(apperr.KindIo, err, "remove session cache %s", s.Path)
	}
	return nil
}

// splitLines splits like a line reader: a single trailing newline does not
// start an empty line, and "\r\n" endings are accepted.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperr.Wrap(apperr.KindIo, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperr.Wrap(apperr.KindIo, err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperr.Wrap(apperr.KindIo, err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperr.Wrap(apperr.KindIo, err, "rename %s", tmpName)
	}
	return nil
}
