// Package opts carries shared dependencies for treesync commands.
package opts

import (
	"github.com/walteh/treesync/pkg/config"
	"github.com/walteh/treesync/pkg/lockq"
	"github.com/walteh/treesync/pkg/log"
)

// 🔧 RootOpts holds the dependencies shared by all commands
type RootOpts struct {
	// Config is the loaded treesync configuration
	Config *config.Config
	// Locks serializes concurrent syncs against overlapping destinations
	Locks *lockq.Queue
	// UserLogger renders sync activity for the console
	UserLogger *log.Logger
}
