package hasher

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// HashTree walks baseDir and returns one digest per regular file,
// keyed by the file's forward-slash path relative to baseDir with a
// leading separator ("/sub/save.dat"). The same keys become archive
// entry names and diff-protocol paths, so the shape is part of the
// wire contract with the server. So is the digest algorithm: MD5,
// lower-case hex, matching what the server computes on its side.
//
// Any unreadable file fails the whole call; no partial map is
// returned.
func HashTree(baseDir string) (map[string]string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid base dir: %w", err)
	}

	if info, err := os.Stat(absBase); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", absBase, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absBase)
	}

	files := make(map[string]string)

	err = filepath.WalkDir(absBase, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		// Symlinked files are hashed via their target; symlinked
		// directories are not descended (WalkDir does not follow them).
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}

		sum, err := hashFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(absBase, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}

		files["/"+filepath.ToSlash(rel)] = sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
