package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IAMVanilka/Mnemy/internal/fsutil"
	"github.com/IAMVanilka/Mnemy/internal/logger"
	"go.uber.org/zap"
)

var errUnsafePath = errors.New("archive entry escapes destination")

// Extract reads a gzip-compressed tar from r and unpacks it into
// dest. With replace set, dest is deleted and recreated first, so
// afterwards it contains exactly the archive's entries.
//
// The incoming stream is spooled to a temp file before extraction
// (the server streams the archive; extraction wants a stable local
// copy). The temp file is removed on every path, error included.
// A failed extraction leaves dest in an undefined state but is always
// reported as an error, never swallowed.
func Extract(r io.Reader, dest string, replace bool) error {
	tmp, err := os.CreateTemp("", "mnemy-download-*.tar.gz")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("failed to spool archive: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind temp file: %w", err)
	}

	if replace {
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to clear destination: %w", err)
		}
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	return unpack(tmp, dest)
}

func unpack(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("invalid gzip stream: %w", err)
	}

	defer func(gz *gzip.Reader) {
		_ = gz.Close()
	}(gz)

	tr := tar.NewReader(gz)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid tar stream: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := fsutil.AtomicWrite(target, tr); err != nil {
				return fmt.Errorf("failed to extract %s: %w", hdr.Name, err)
			}
			logger.Log.Debug("extracted", zap.String("path", target))

		default:
			logger.Log.Debug("skipping tar entry",
				zap.String("name", hdr.Name),
				zap.Uint8("type", hdr.Typeflag))
		}
	}
}

func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(name, "/")))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}

	return filepath.Join(dest, cleaned), nil
}
