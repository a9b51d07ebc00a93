// FILE: cmd/repctl/commands.go
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"repertoire/internal/board"
	"repertoire/internal/config"
	"repertoire/internal/service"
)

// sideFlag registers --side and returns a validator for it
func sideFlag(cmd *cobra.Command, side *string) func() (string, error) {
	cmd.Flags().StringVarP(side, "side", "s", "white", "Repertoire: white or black")
	return func() (string, error) {
		c, err := board.ParseColor(*side)
		if err != nil {
			return "", err
		}
		return c.String(), nil
	}
}

// readInput reads a file, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newImportCmd(opts *options) *cobra.Command {
	var side string
	cmd := &cobra.Command{
		Use:   "import <file.pgn|->",
		Short: "Merge the games of a PGN file into a repertoire",
		Args:  cobra.ExactArgs(1),
	}
	resolve := sideFlag(cmd, &side)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name, err := resolve()
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return opts.withService(cmd, func(svc *service.Service, _ config.Config) error {
			stats, rev, err := svc.ImportPGN(name, string(data))
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d games (%d skipped), %d moves into %s, revision %d\n",
				stats.Games, stats.Skipped, stats.Moves, name, rev)
			return nil
		})
	}
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var side, format, fen, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a repertoire as PGN or as its JSON snapshot",
		Args:  cobra.NoArgs,
	}
	resolve := sideFlag(cmd, &side)
	cmd.Flags().StringVarP(&format, "format", "f", "pgn", "Output format: pgn or json")
	cmd.Flags().StringVar(&fen, "fen", "", "Export only the subtree at this position (pgn only)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		name, err := resolve()
		if err != nil {
			return err
		}
		if format != "pgn" && format != "json" {
			return fmt.Errorf("unknown format %q: use pgn or json", format)
		}
		return opts.withService(cmd, func(svc *service.Service, _ config.Config) error {
			var data []byte
			if format == "json" {
				data, err = svc.Export(name)
			} else {
				var text string
				text, err = svc.PGN(name, fen)
				data = []byte(text + "\n")
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", output)
			return nil
		})
	}
	return cmd
}

func newRestoreCmd(opts *options) *cobra.Command {
	var side string
	cmd := &cobra.Command{
		Use:   "restore <file.json|->",
		Short: "Replace a repertoire with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
	}
	resolve := sideFlag(cmd, &side)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name, err := resolve()
		if err != nil {
			return err
		}
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return opts.withService(cmd, func(svc *service.Service, _ config.Config) error {
			stats, rev, err := svc.Restore(name, data)
			if err != nil {
				return err
			}
			cmd.Printf("Restored %s: %d positions, %d moves, revision %d\n",
				name, stats.Positions, stats.Moves, rev)
			return nil
		})
	}
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize both repertoires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(svc *service.Service, _ config.Config) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "Side\tPositions\tMoves\tTrained\tEvents\tTags\tNew\tScheduled\tDifficult\tRevision")
				for _, o := range svc.Repertoires() {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
						o.Stats.Side, o.Stats.Positions, o.Stats.Moves, o.Stats.Trained,
						o.Stats.Events, o.Stats.Tags, o.Summary.New, o.Summary.Scheduled,
						o.Summary.Difficult, o.Revision)
				}
				return w.Flush()
			})
		},
	}
}

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write dated compressed backups of both repertoires now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd, func(svc *service.Service, cfg config.Config) error {
				if cfg.Backup.Dir == "" {
					return fmt.Errorf("no backup directory: set --backup-dir or backup.dir")
				}
				paths, err := svc.Backup()
				for _, p := range paths {
					cmd.Printf("Wrote %s\n", p)
				}
				return err
			})
		},
	}
}
