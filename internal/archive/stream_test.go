package archive

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStream_RoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "save.dat", "primary save")
	writeFile(t, src, "slots/slot1.sav", "slot one")

	s := NewStream(src, []string{"/save.dat", "/slots/slot1.sav"})
	defer func() {
		_ = s.Close()
	}()

	dest := t.TempDir()
	require.NoError(t, Extract(s, dest, false))

	got, err := os.ReadFile(filepath.Join(dest, "save.dat"))
	require.NoError(t, err)
	assert.Equal(t, "primary save", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "slots", "slot1.sav"))
	require.NoError(t, err)
	assert.Equal(t, "slot one", string(got))
}

func TestStream_SkipsVanishedFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "kept.dat", "kept")

	s := NewStream(src, []string{"/kept.dat", "/deleted-mid-scan.dat"})
	defer func() {
		_ = s.Close()
	}()

	dest := t.TempDir()
	require.NoError(t, Extract(s, dest, false))

	_, err := os.Stat(filepath.Join(dest, "kept.dat"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "deleted-mid-scan.dat"))
	assert.True(t, os.IsNotExist(err))
}

func TestStream_Chunks(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "big.dat", string(make([]byte, 256*1024)))

	s := NewStream(src, []string{"/big.dat"})
	defer func() {
		_ = s.Close()
	}()

	var total int
	var chunks int
	for chunk := range s.Chunks(64 * 1024) {
		assert.LessOrEqual(t, len(chunk), 64*1024)
		total += len(chunk)
		chunks++
	}

	assert.Greater(t, chunks, 0)
	assert.Greater(t, total, 0)
}

func TestStream_EarlyCloseTerminatesProducer(t *testing.T) {
	src := t.TempDir()
	// Incompressible payload so the archive is large enough to keep
	// the producer blocked on the pipe well past two chunks.
	payload := make([]byte, 4*1024*1024)
	_, _ = rand.New(rand.NewSource(1)).Read(payload)
	writeFile(t, src, "huge.bin", string(payload))

	s := NewStream(src, []string{"/huge.bin"})

	chunks := s.Chunks(64 * 1024)
	for i := 0; i < 2; i++ {
		_, ok := <-chunks
		require.True(t, ok)
	}

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not terminate after consumer closed")
	}
}

func TestStream_ReadAfterProducerDone(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "tiny.dat", "x")

	s := NewStream(src, []string{"/tiny.dat"})

	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	s.Wait()
	require.NoError(t, s.Close())
}
