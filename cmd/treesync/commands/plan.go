package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/treesync/cmd/treesync/opts"
	"github.com/walteh/treesync/pkg/planner"
	"github.com/walteh/treesync/pkg/syncer"
	"gitlab.com/tozd/go/errors"
)

// NewPlanCmd creates a new plan command
func NewPlanCmd(newOpts func(ctx context.Context) (*opts.RootOpts, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the actions a sync would execute",
		Long: `Plan compares each configured source and destination tree and prints
the copy and symlink actions a sync would execute, without copying anything.
Extraneous destination entries are still removed: deletion is part of the
planning phase.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := newOpts(ctx)
			if err != nil {
				return err
			}

			o.UserLogger.Header("planning " + o.Config.Location())

			s := syncer.New(syncer.Options{Concurrency: o.Config.Concurrency})

			total := 0
			for _, def := range o.Config.Syncs {
				release, err := o.Locks.Acquire(ctx, def.Destination)
				if err != nil {
					return err
				}
				actions, err := s.Plan(ctx, []syncer.Pair{{Source: def.Source, Dest: def.Destination}})
				release()
				if err != nil {
					return errors.Errorf("planning %s: %w", def.Destination, err)
				}

				for _, action := range actions {
					switch action.Type {
					case planner.ActionFileCopy:
						pterm.Info.Printf("copy    %s -> %s\n", action.Source, action.Dest)
					case planner.ActionSymlinkCreate:
						pterm.Info.Printf("symlink %s -> %s\n", action.Dest, action.Target)
					}
				}
				total += len(actions)
			}

			if total == 0 {
				o.UserLogger.Success("nothing to do")
				return nil
			}
			o.UserLogger.Infof("%d actions pending", total)
			return nil
		},
	}

	return cmd
}
