//go:build windows

package hardlink

// HasHardlinks checks if a file has multiple hardlinks
// Windows implementation - returns error as not supported
func HasHardlinks(path string) (bool, error) {
	return false, ErrUnsupported
}

// GetHardlinkCount returns the number of hardlinks for a file
// Windows implementation - returns error as not supported
func GetHardlinkCount(path string) (uint32, error) {
	return 0, ErrUnsupported
}
