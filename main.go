package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/instaplanner/internal/model"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "instaplanner",
		Short:        "Plan the order of an Instagram grid",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive shell
  instaplanner

  # Add images to the sidebar, then export the grid as a PDF
  instaplanner import ~/Pictures/drafts
  instaplanner export profile.pdf
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, a)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $INSTAPLANNER_CONFIG or config.yaml)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path, overrides storage.path")

	cmd.AddCommand(
		newShellCmd(a),
		newListCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newShuffleCmd(a),
		newClearCmd(a),
	)
	return cmd
}

// withApp opens the app around fn and flushes every queued write before returning.
func withApp(cmd *cobra.Command, a *app, fn func() error) error {
	if err := a.open(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer a.close()
	return fn()
}

func runShell(cmd *cobra.Command, a *app) error {
	return withApp(cmd, a, func() error {
		return a.shell().Run(cmd.Context(), cmd.InOrStdin())
	})
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, a)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the grid and the sidebar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, a, func() error {
				return a.shell().Exec("ls")
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "import <file|dir>...",
		Short: "Add image files to a container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := model.ParseContainer(to)
			if err != nil || !target.Valid() {
				return fmt.Errorf("--to must be grid or sidebar, got %q", to)
			}
			return withApp(cmd, a, func() error {
				return a.shell().Import(target, args)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", string(model.Sidebar), "target container (grid or sidebar)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.pdf>",
		Short: "Render the grid as a printable profile preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, a, func() error {
				items := a.planner.Items(model.Grid)
				if err := a.sheet.WriteFile(args[0], items); err != nil {
					return err
				}
				a.printer.Printf("Exported %d images to %s", len(items), args[0])
				return nil
			})
		},
	}
}

func newShuffleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "shuffle [grid|sidebar]",
		Short:     "Randomly rearrange a container",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(model.Grid), string(model.Sidebar)},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := model.Grid
			if len(args) == 1 {
				c = model.Container(args[0])
			}
			return withApp(cmd, a, func() error {
				return a.planner.Shuffle(c)
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "clear <grid|sidebar|all>",
		Short:     "Remove every image from a container, or from both",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.Grid), string(model.Sidebar), string(model.All)},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseContainer(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, a, func() error {
				if c == model.All {
					return a.planner.ClearAll()
				}
				return a.planner.Clear(c)
			})
		},
	}
}
