//go:build darwin

package hos

import "os"

// Darwin has no memfd_create. An unlinked temp file behaves
// the same for mapping purposes; the name disappears immediately and the
// backing goes away with the last mapping.
func newFrameFile() (*os.File, error) {
	f, err := os.CreateTemp("", "hos-frames-")
	if err != nil {
		return nil, err
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
