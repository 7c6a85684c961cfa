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
	"sync"

	"github.com/IAMVanilka/Mnemy/internal/logger"
	"go.uber.org/zap"
)

// DefaultChunkSize matches the server's streaming granularity.
const DefaultChunkSize = 64 * 1024

// Stream is a lazy tar.gz encoding of a file list. The producer
// goroutine writes into one end of an io.Pipe while the consumer
// reads the other, so memory stays bounded by the pipe buffer no
// matter how large the archive is. The stream is finite and single
// pass: read it once, then Close it.
type Stream struct {
	pr        *io.PipeReader
	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewStream starts producing a gzip-compressed tar of the given files.
// relPaths use the hasher's key shape: forward slashes with a leading
// separator, relative to baseDir; the same strings become the archive
// entry names. A listed file that no longer exists when the producer
// reaches it is skipped silently; games may delete save files
// between the diff and the upload.
func NewStream(baseDir string, relPaths []string) *Stream {
	pr, pw := io.Pipe()
	s := &Stream{
		pr:     pr,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}

	go s.produce(pw, baseDir, relPaths)
	return s
}

func (s *Stream) produce(pw *io.PipeWriter, baseDir string, relPaths []string) {
	defer close(s.done)

	err := writeArchive(pw, baseDir, relPaths)

	// The consumer closing its end surfaces as io.ErrClosedPipe on our
	// writes. That is cancellation, not failure.
	if errors.Is(err, io.ErrClosedPipe) {
		logger.Log.Debug("archive stream closed by consumer")
		err = nil
	}

	if err != nil {
		logger.Log.Error("archive stream failed", zap.Error(err))
	}

	_ = pw.CloseWithError(err)
}

func writeArchive(w io.Writer, baseDir string, relPaths []string) error {
	gz, err := gzip.NewWriterLevel(w, 6)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	tw := tar.NewWriter(gz)

	for _, rel := range relPaths {
		path := filepath.Join(baseDir, filepath.FromSlash(strings.TrimPrefix(rel, "/")))

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Log.Debug("skipping vanished file", zap.String("path", path))
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if err := addFile(tw, path, rel, info); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}

	return gz.Close()
}

func addFile(tw *tar.Writer, path, arcname string, info os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to build tar header: %w", err)
	}
	hdr.Name = strings.TrimPrefix(arcname, "/")

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		// Vanished between stat and open: same leniency as above.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if _, err := io.CopyN(tw, f, hdr.Size); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}

	return nil
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Close tears down the consumer side. If the producer is still
// writing, its next write fails with io.ErrClosedPipe and it exits
// cleanly; Close always waits for it.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.pr.CloseWithError(io.ErrClosedPipe)
	})
	<-s.done
	return nil
}

// Wait blocks until the producer goroutine has finished.
func (s *Stream) Wait() {
	<-s.done
}

// Chunks drains the stream as an ordered sequence of buffers of at
// most size bytes. The channel is closed when the stream ends; the
// sequence is not restartable. The caller still owns Close.
func (s *Stream) Chunks(size int) <-chan []byte {
	if size <= 0 {
		size = DefaultChunkSize
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		for {
			buf := make([]byte, size)
			n, err := io.ReadFull(s.pr, buf)
			if n > 0 {
				select {
				case out <- buf[:n]:
				case <-s.closed:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return out
}
