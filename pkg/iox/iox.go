package iox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteStreamToFile copies src into dstFilename. If the copy fails, the partial
// file is removed.
func WriteStreamToFile(dstFilename string, src io.Reader) error {
	dstFile, err := os.Create(dstFilename)
	if err != nil {
		return err
	}
	_, err = io.Copy(dstFile, src)
	errClose := dstFile.Close()
	if err == nil {
		err = errClose
	}
	if err != nil {
		os.Remove(dstFilename)
		return err
	}
	return nil
}

// WriteStreamToFileAtomic is like WriteStreamToFile, but dstFilename only appears
// once the whole stream has been written. A crash midway leaves at most a temp file
// behind, never a truncated dstFilename.
func WriteStreamToFileAtomic(dstFilename string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dstFilename), "."+filepath.Base(dstFilename)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = io.Copy(tmp, src)
	errClose := tmp.Close()
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(tmpName, dstFilename)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the same directory, and renames it into place
func WriteFileAtomic(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	errClose := tmp.Close()
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(tmpName, filename)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// CopyFile copies the file src to dst, overwriting dst
func CopyFile(dst, src string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := WriteStreamToFile(dst, file); err != nil {
		return fmt.Errorf("Failed to copy %v to %v: %w", src, dst, err)
	}
	return nil
}

// FileExists returns true if filename exists and is a regular file
func FileExists(filename string) bool {
	st, err := os.Stat(filename)
	return err == nil && st.Mode().IsRegular()
}
