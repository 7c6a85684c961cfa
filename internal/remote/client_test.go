package remote

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/IAMVanilka/Mnemy/internal/credstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(host string) *Client {
	return NewClient(
		WithHostLoader(func() (string, error) { return host, nil }),
		WithTokenLoader(func() (string, error) { return "test-token", nil }),
	)
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCheckFiles_Diff(t *testing.T) {
	saves := t.TempDir()
	writeFile(t, saves, "a.txt", "alpha")
	writeFile(t, saves, "b.txt", "beta")

	// Server knows a.txt with its current hash; b.txt is new.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epCheckFiles, r.URL.Path)
		require.Equal(t, "test-token", r.Header.Get(headerToken))

		var body struct {
			GameName     string            `json:"game_name"`
			FilesData    map[string]string `json:"files_data"`
			LastSyncDate *string           `json:"last_sync_date"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Celeste", body.GameName)
		assert.Nil(t, body.LastSyncDate)

		known := map[string]string{"/a.txt": body.FilesData["/a.txt"]}

		var missing, mismatched []string
		for path, hash := range body.FilesData {
			serverHash, ok := known[path]
			switch {
			case !ok:
				missing = append(missing, path)
			case serverHash != hash:
				mismatched = append(mismatched, path)
			}
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"files_data": map[string]any{
				"missing_on_server": missing,
				"mismatched_hashes": mismatched,
			},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	diff, err := c.CheckFiles(context.Background(), saves, "Celeste", nil)
	require.NoError(t, err)
	assert.False(t, diff.Redirect)
	assert.Equal(t, []string{"/b.txt"}, diff.MissingOnServer)
	assert.Empty(t, diff.MismatchedHashes)

	// Idempotent: same local state, same diff.
	again, err := c.CheckFiles(context.Background(), saves, "Celeste", nil)
	require.NoError(t, err)
	assert.Equal(t, diff, again)
}

func TestCheckFiles_RedirectMeansFullDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTemporaryRedirect)
	}))
	defer ts.Close()

	saves := t.TempDir()
	writeFile(t, saves, "a.txt", "alpha")

	diff, err := newTestClient(ts.URL).CheckFiles(context.Background(), saves, "Hades", nil)
	require.NoError(t, err)
	assert.True(t, diff.Redirect)
}

func TestCheckFiles_UnreadableDirFailsBeforeRequest(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).CheckFiles(context.Background(),
		filepath.Join(t.TempDir(), "missing"), "Hades", nil)
	assert.Error(t, err)
	assert.False(t, called)
}

func TestUploadFiles_StreamsArchive(t *testing.T) {
	saves := t.TempDir()
	writeFile(t, saves, "save.dat", "payload")

	var gotGame string
	var gotEntries map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epUploadData, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		gotGame = r.FormValue(uploadFieldGame)

		file, header, err := r.FormFile(uploadFieldFile)
		require.NoError(t, err)
		assert.Equal(t, uploadFilename, header.Filename)

		gotEntries = readArchive(t, file)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	err := newTestClient(ts.URL).UploadFiles(context.Background(), saves, []string{"/save.dat"}, "Hades")
	require.NoError(t, err)
	assert.Equal(t, "Hades", gotGame)
	assert.Equal(t, map[string]string{"save.dat": "payload"}, gotEntries)
}

func TestUploadFiles_EmptyListIsNoop(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	err := newTestClient(ts.URL).UploadFiles(context.Background(), t.TempDir(), nil, "Hades")
	assert.NoError(t, err)
	assert.False(t, called, "no request expected for an empty upload list")
}

func TestDownloadFiles_ExtractsIntoDest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epDownloadData, r.URL.Path)
		assert.Equal(t, "Hades", r.URL.Query().Get(uploadFieldGame))

		w.Header().Set("Content-Type", "application/gzip")
		_, _ = w.Write(buildArchive(t, map[string]string{"save.dat": "from server"}))
	}))
	defer ts.Close()

	dest := t.TempDir()
	writeFile(t, dest, "stale.dat", "old")

	err := newTestClient(ts.URL).DownloadFiles(context.Background(), "Hades", dest, true)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dest, "save.dat"))
	require.NoError(t, err)
	assert.Equal(t, "from server", string(got))

	_, err = os.Stat(filepath.Join(dest, "stale.dat"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFiles_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	err := newTestClient(ts.URL).DownloadFiles(context.Background(), "Nope", t.TempDir(), false)
	assert.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestCreds_MissingHostAndToken(t *testing.T) {
	noHost := NewClient(
		WithHostLoader(func() (string, error) { return "", nil }),
		WithTokenLoader(func() (string, error) { return "tok", nil }),
	)
	_, err := noHost.CheckToken(context.Background())
	assert.ErrorIs(t, err, ErrHostNotSet)

	noToken := NewClient(
		WithHostLoader(func() (string, error) { return "http://127.0.0.1:1", nil }),
		WithTokenLoader(func() (string, error) { return "", credstore.ErrTokenNotSet }),
	)
	_, err = noToken.CheckToken(context.Background())
	assert.ErrorIs(t, err, credstore.ErrTokenNotSet)
}

func TestGamesData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"games_list": []map[string]any{{"game_name": "Hades"}},
		})
	}))
	defer ts.Close()

	games, err := newTestClient(ts.URL).GamesData(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0]["game_name"])
}

func TestGamesData_NonJSONIsProtocolError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login page</html>"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).GamesData(context.Background())
	require.Error(t, err)
	var protoErr *ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestCheckToken(t *testing.T) {
	status := true
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epCheckToken, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]bool{"token_status": status})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	ok, err := c.CheckToken(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	status = false
	ok, err = c.CheckToken(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epHealth, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	assert.True(t, c.CheckHealth(context.Background(), ""))
	assert.True(t, c.CheckHealth(context.Background(), ts.URL))
	assert.False(t, c.CheckHealth(context.Background(), "http://127.0.0.1:1"))
}

func TestDeleteBackup_Statuses(t *testing.T) {
	code := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(code)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	assert.NoError(t, c.DeleteBackup(context.Background(), "Hades", "b1"))

	code = http.StatusNoContent
	err := c.DeleteBackup(context.Background(), "Hades", "b1")
	assert.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestDeleteGame_AbsentIsSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, epDeleteGame+"Hades", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("delete_backups"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	assert.NoError(t, newTestClient(ts.URL).DeleteGame(context.Background(), "Hades", true))
}

func TestRenameGame(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, epUpdateGame+"Old", r.URL.Path)
		assert.Equal(t, "New", r.URL.Query().Get("new_game_name"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	assert.NoError(t, newTestClient(ts.URL).RenameGame(context.Background(), "Old", "New"))
}

func TestNetworkErrorIsTyped(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")

	_, err := c.Backups(context.Background())
	require.Error(t, err)
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

// helpers

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func readArchive(t *testing.T, r io.Reader) map[string]string {
	t.Helper()

	gz, err := gzip.NewReader(r)
	require.NoError(t, err)

	entries := make(map[string]string)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}

	return entries
}
