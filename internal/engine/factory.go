package engine

import (
	"options-signal-bot/internal/store"
)

// New returns a stopped, uninitialized Bot over d.
func New(cfg *store.Config, d Deps) *Bot {
	return newBot(cfg, d)
}
