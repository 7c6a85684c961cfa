package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/hasher"
	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/IAMVanilka/Mnemy/internal/model"
	"github.com/IAMVanilka/Mnemy/internal/remote"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"go.uber.org/zap"
)

// ErrFirstSync marks a game that has never been synced. The engine
// refuses to pick a direction on its own: the caller must resolve it
// with an explicit Push (upload local, creating remote) or Pull
// (download remote, discarding local).
var ErrFirstSync = errors.New("game has never been synced: choose push or pull")

type Direction string

const (
	DirectionNone     Direction = "none"
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

type Outcome struct {
	Direction Direction
	Files     int
}

// RemoteClient is the slice of the remote API the orchestrator needs.
type RemoteClient interface {
	CheckFiles(ctx context.Context, baseDir, game string, lastSync *time.Time) (*remote.DiffResult, error)
	UploadFiles(ctx context.Context, baseDir string, relPaths []string, game string) error
	DownloadFiles(ctx context.Context, game, dest string, replace bool) error
}

// Syncer decides, per game, whether to upload changed files, pull a
// full remote copy, or do nothing, and records the sync timestamp
// strictly after a successful transfer.
type Syncer struct {
	repo   *repository.GameRepository
	client RemoteClient
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(repo *repository.GameRepository, client RemoteClient) *Syncer {
	return &Syncer{
		repo:   repo,
		client: client,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// gameLock serializes sync operations per game so the watcher and a
// manual trigger cannot race on the same saves directory.
func (s *Syncer) gameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}

	return lock
}

// Sync runs one full sync pass for a game that has synced before.
// Flow: diff against the server, then either upload the differing
// files or, when the server has no baseline, pull a full copy
// replacing the local directory. The last-sync timestamp moves only
// after a successful transfer. No automatic retries.
func (s *Syncer) Sync(ctx context.Context, name string) (Outcome, error) {
	lock := s.gameLock(name)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.repo.GetByName(name)
	if err != nil {
		return Outcome{}, err
	}

	if game.LastSyncAt == nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrFirstSync, name)
	}

	logger.Log.Info("checking files", zap.String("game", name))

	diff, err := s.client.CheckFiles(ctx, game.SavesPath, name, game.LastSyncAt)
	if err != nil {
		return Outcome{}, err
	}

	if diff.Redirect {
		return s.download(ctx, game)
	}

	return s.upload(ctx, game, diff.UploadList())
}

// Push resolves a first sync by uploading the local state, creating
// the remote baseline. Also valid for already-synced games as a
// forced upload of whatever differs.
func (s *Syncer) Push(ctx context.Context, name string) (Outcome, error) {
	lock := s.gameLock(name)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.repo.GetByName(name)
	if err != nil {
		return Outcome{}, err
	}

	diff, err := s.client.CheckFiles(ctx, game.SavesPath, name, game.LastSyncAt)
	if err != nil {
		return Outcome{}, err
	}

	paths := diff.UploadList()
	if diff.Redirect {
		// No baseline on the server: send everything we have.
		filesData, err := hasher.HashTree(game.SavesPath)
		if err != nil {
			return Outcome{}, err
		}

		paths = paths[:0]
		for path := range filesData {
			paths = append(paths, path)
		}
	}

	return s.upload(ctx, game, paths)
}

// Pull resolves a first sync by downloading the remote state,
// discarding whatever is in the local saves directory.
func (s *Syncer) Pull(ctx context.Context, name string) (Outcome, error) {
	lock := s.gameLock(name)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.repo.GetByName(name)
	if err != nil {
		return Outcome{}, err
	}

	return s.download(ctx, game)
}

func (s *Syncer) upload(ctx context.Context, game model.Game, paths []string) (Outcome, error) {
	logger.Log.Info("uploading changed files",
		zap.String("game", game.Name),
		zap.Int("files", len(paths)))

	if err := s.client.UploadFiles(ctx, game.SavesPath, paths, game.Name); err != nil {
		logger.Log.Error("sync failed",
			zap.String("game", game.Name),
			zap.Error(err))
		return Outcome{}, err
	}

	if err := s.markSynced(game.Name); err != nil {
		return Outcome{}, err
	}

	return Outcome{Direction: DirectionUpload, Files: len(paths)}, nil
}

func (s *Syncer) download(ctx context.Context, game model.Game) (Outcome, error) {
	logger.Log.Info("pulling full remote copy",
		zap.String("game", game.Name),
		zap.String("dest", game.SavesPath))

	if err := s.client.DownloadFiles(ctx, game.Name, game.SavesPath, true); err != nil {
		logger.Log.Error("sync failed",
			zap.String("game", game.Name),
			zap.Error(err))
		return Outcome{}, err
	}

	if err := s.markSynced(game.Name); err != nil {
		return Outcome{}, err
	}

	return Outcome{Direction: DirectionDownload}, nil
}

// markSynced stores the local wall-clock time. The stored value is
// converted to UTC with its own offset when the next diff runs, so
// the convention stays consistent across DST changes.
func (s *Syncer) markSynced(name string) error {
	logger.Log.Info("sync done", zap.String("game", name))
	return s.repo.SetLastSync(name, s.now())
}
