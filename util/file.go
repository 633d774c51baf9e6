package util

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces the file with the content. The content is written to a temporary
// file in the same directory first, readers see either the old or the new file.
func WriteFileAtomic(name string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), name)
}
