package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/treesync/cmd/treesync/opts"
	"github.com/walteh/treesync/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// NewListCmd creates a new list command
func NewListCmd(newOpts func(ctx context.Context) (*opts.RootOpts, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every source entry a sync would consider",
		Long: `List walks each configured source tree and prints its manifest,
directories before their descendants, honoring the configured ignore names
and patterns. Nothing is compared or copied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := newOpts(ctx)
			if err != nil {
				return err
			}

			o.UserLogger.Header("listing " + o.Config.Location())

			walkOpts := walker.Options{
				IgnoreNames:    o.Config.IgnoreNames,
				IgnorePatterns: o.Config.IgnorePatterns,
			}

			total := 0
			for _, def := range o.Config.Syncs {
				entries, err := walker.Walk(def.Source, "", walkOpts)
				if err != nil {
					return errors.Errorf("listing %s: %w", def.Source, err)
				}

				pterm.Info.WithPrefix(pterm.Prefix{Text: "📂"}).Println(def.Source)
				for _, entry := range entries {
					pterm.Printf("  %s\n", entry.RelPath)
				}
				total += len(entries)
			}

			o.UserLogger.Infof("%d entries across %d sources", total, len(o.Config.Syncs))
			return nil
		},
	}

	return cmd
}
