package notify

import (
	"github.com/gen2brain/beeep"
)

// Notifier delivers short user-facing messages. The engine only
// reports typed outcomes; formatting and delivery live here.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends OS-level desktop notifications.
type Desktop struct{}

func NewDesktop() *Desktop {
	return &Desktop{}
}

func (d *Desktop) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Nop swallows notifications. Used in tests and headless runs.
type Nop struct{}

func (Nop) Notify(title, body string) error { return nil }
