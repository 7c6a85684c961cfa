package model

import (
	"time"

	"gorm.io/gorm"
)

// Game is one tracked game: where its saves live locally and, when
// set, which executable the process watcher should monitor.
type Game struct {
	gorm.Model
	Name       string `gorm:"not null;uniqueIndex"`
	SavesPath  string `gorm:"not null"`
	GamePath   string
	LastSyncAt *time.Time
}

// GamePatch is a partial update: nil fields are left untouched.
type GamePatch struct {
	Name      *string
	SavesPath *string
	GamePath  *string
}

func (p GamePatch) Apply(g *Game) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.SavesPath != nil {
		g.SavesPath = *p.SavesPath
	}
	if p.GamePath != nil {
		g.GamePath = *p.GamePath
	}
}
