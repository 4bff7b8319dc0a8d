package hardlink

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// ErrUnsupported is returned on platforms without link counts
var ErrUnsupported = errors.New("hardlink detection not supported on this platform")

var errFound = errors.New("found")

// ContentHardlinked reports whether the torrent content at path is linked
// elsewhere, e.g. imported into a media library. For a directory it is true
// when any regular file inside has more than one link.
func ContentHardlinked(path string) (bool, error) {
	found := false
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		linked, err := HasHardlinks(p)
		if err != nil {
			return err
		}
		if linked {
			found = true
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return false, err
	}
	return found, nil
}
