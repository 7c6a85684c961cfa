package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/archive"
	"github.com/IAMVanilka/Mnemy/internal/fsutil"
	"github.com/IAMVanilka/Mnemy/internal/hasher"
	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

// CheckFiles hashes baseDir and asks the server which files it is
// missing or holds with different hashes. lastSync is sent as UTC;
// nil on a game's very first check. A 307 response is the server
// saying it has no baseline at all and the caller must pull a full
// copy instead.
func (c *Client) CheckFiles(ctx context.Context, baseDir, game string, lastSync *time.Time) (*DiffResult, error) {
	host, token, err := c.creds()
	if err != nil {
		return nil, err
	}

	filesData, err := hasher.HashTree(baseDir)
	if err != nil {
		return nil, err
	}

	var lastSyncStr *string
	if lastSync != nil {
		s := lastSync.UTC().Format(time.RFC3339)
		lastSyncStr = &s
	}

	var body checkFilesResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetBody(&checkFilesRequest{
			GameName:     game,
			FilesData:    filesData,
			LastSyncDate: lastSyncStr,
		}).
		SetSuccessResult(&body).
		Post(host + epCheckFiles)

	if err == nil && resp.StatusCode == http.StatusTemporaryRedirect {
		return &DiffResult{Redirect: true}, nil
	}

	if err := checkResponse(resp, err, "check files"); err != nil {
		return nil, err
	}

	return &DiffResult{
		MissingOnServer:  body.FilesData.MissingOnServer,
		MismatchedHashes: body.FilesData.MismatchedHashes,
	}, nil
}

// UploadFiles streams a tar.gz of the listed files to the server.
// relPaths use the hasher's leading-slash key shape. An empty list is
// a successful no-op.
func (c *Client) UploadFiles(ctx context.Context, baseDir string, relPaths []string, game string) error {
	if len(relPaths) == 0 {
		logger.Log.Info("nothing to upload", zap.String("game", game))
		return nil
	}

	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return fmt.Errorf("saves directory not found: %s", baseDir)
	}

	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetFileUpload(req.FileUpload{
			ParamName:   uploadFieldFile,
			FileName:    uploadFilename,
			ContentType: "application/gzip",
			GetFileContent: func() (io.ReadCloser, error) {
				return archive.NewStream(baseDir, relPaths), nil
			},
		}).
		SetFormData(map[string]string{uploadFieldGame: game}).
		Post(host + epUploadData)

	if err := checkResponse(resp, err, "upload files"); err != nil {
		return err
	}

	logger.Log.Info("upload finished",
		zap.String("game", game),
		zap.Int("files", len(relPaths)))
	return nil
}

// DownloadFiles streams the server's archive for a game into dest.
// A 404 maps to ErrRemoteNotFound.
func (c *Client) DownloadFiles(ctx context.Context, game, dest string, replace bool) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.stream.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetQueryParam(uploadFieldGame, game).
		Get(host + epDownloadData)
	if err != nil {
		return &NetworkError{Op: "download files", Err: err}
	}

	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrRemoteNotFound, game)
	}
	if resp.IsErrorState() {
		return &ProtocolError{Op: "download files", Status: resp.StatusCode}
	}

	if err := archive.Extract(resp.Body, dest, replace); err != nil {
		return err
	}

	logger.Log.Info("download finished",
		zap.String("game", game),
		zap.String("dest", dest))
	return nil
}

// Backups lists the server-side backups per game.
func (c *Client) Backups(ctx context.Context) (map[string]any, error) {
	host, token, err := c.creds()
	if err != nil {
		return nil, err
	}

	var body map[string]any
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetSuccessResult(&body).
		Get(host + epBackupsData)

	if err := checkResponse(resp, err, "list backups"); err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) RestoreBackup(ctx context.Context, game, backup string) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetBody(&backupRequest{GameName: game, BackupName: backup}).
		Post(host + epRestoreBackup)

	return checkResponse(resp, err, "restore backup")
}

// DeleteBackup removes a named backup. A 204 means the backup did not
// exist; that maps to ErrRemoteNotFound.
func (c *Client) DeleteBackup(ctx context.Context, game, backup string) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetBody(&backupRequest{GameName: game, BackupName: backup}).
		Delete(host + epDeleteBackup)

	if err := checkResponse(resp, err, "delete backup"); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return fmt.Errorf("%w: backup %s/%s", ErrRemoteNotFound, game, backup)
	}

	return nil
}

// DownloadImage fetches the server-stored cover image for a game and
// writes it to destPath.
func (c *Client) DownloadImage(ctx context.Context, game, destPath string) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.stream.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		Get(host + epGetImage + game)
	if err != nil {
		return &NetworkError{Op: "download image", Err: err}
	}

	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: image for %s", ErrRemoteNotFound, game)
	}
	if resp.IsErrorState() {
		return &ProtocolError{Op: "download image", Status: resp.StatusCode}
	}

	return fsutil.AtomicWrite(destPath, resp.Body)
}
