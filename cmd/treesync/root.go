// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/treesync/cmd/treesync/commands"
	"github.com/walteh/treesync/cmd/treesync/opts"
	"github.com/walteh/treesync/pkg/config"
	"github.com/walteh/treesync/pkg/lockq"
	"github.com/walteh/treesync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	cfg, err := config.LoadConfig(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &opts.RootOpts{
		Config:     cfg,
		Locks:      lockq.New(),
		UserLogger: log.New(os.Stdout, level),
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".treesync.hcl", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		pterm.EnableDebugMessages()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}

// NewRootCmd creates the root treesync command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treesync",
		Short: "Make destination trees identical to their sources",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	addRootFlags(cmd)

	cmd.AddCommand(commands.NewSyncCmd(newRootOpts))
	cmd.AddCommand(commands.NewPlanCmd(newRootOpts))
	cmd.AddCommand(commands.NewListCmd(newRootOpts))

	return cmd
}
