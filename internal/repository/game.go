package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/db"
	"github.com/IAMVanilka/Mnemy/internal/model"
	"gorm.io/gorm"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository() *GameRepository {
	return &GameRepository{db: db.DB}
}

func NewGameRepositoryWith(gdb *gorm.DB) *GameRepository {
	return &GameRepository{db: gdb}
}

func (r *GameRepository) Add(name, savesPath, gamePath string) (model.Game, error) {
	game := model.Game{
		Name:      name,
		SavesPath: savesPath,
		GamePath:  gamePath,
	}

	return game, r.db.Create(&game).Error
}

func (r *GameRepository) GetAll() ([]model.Game, error) {
	var games []model.Game
	return games, r.db.Order("name").Find(&games).Error
}

func (r *GameRepository) GetByName(name string) (model.Game, error) {
	var game model.Game
	err := r.db.Where("name = ?", name).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game, fmt.Errorf("%w: %s", ErrGameNotFound, name)
	}

	return game, err
}

func (r *GameRepository) Update(name string, patch model.GamePatch) (model.Game, error) {
	game, err := r.GetByName(name)
	if err != nil {
		return game, err
	}

	patch.Apply(&game)
	return game, r.db.Save(&game).Error
}

func (r *GameRepository) Delete(name string) error {
	game, err := r.GetByName(name)
	if err != nil {
		return err
	}

	return r.db.Delete(&game).Error
}

// SetLastSync records a successful sync. The timestamp never moves
// backwards, so a delayed writer cannot undo a newer sync.
func (r *GameRepository) SetLastSync(name string, t time.Time) error {
	game, err := r.GetByName(name)
	if err != nil {
		return err
	}

	if game.LastSyncAt != nil && t.Before(*game.LastSyncAt) {
		return nil
	}

	game.LastSyncAt = &t
	return r.db.Save(&game).Error
}
