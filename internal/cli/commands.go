package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/walkgrid/internal/app"
)

// newApp builds an app for the command from the merged settings.
func newApp(cmd *cobra.Command, v *viper.Viper, args []string) (*app.App, error) {
	path, err := modulesPath(v, args)
	if err != nil {
		return nil, err
	}
	cfg, err := buildConfig(v, path)
	if err != nil {
		return nil, err
	}
	return app.NewApp(commandContext(cmd), cmd.OutOrStdout(), cfg, nil), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newCheckCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Load and resolve modules without running anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v, args)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.LoadModules(); err != nil {
				return err
			}
			rt := a.Runtime()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d modules, %d architypes, %d graphs\n",
				len(rt.Modules()), len(rt.Registry().Architypes()), len(rt.GraphNames()))
			return nil
		},
	}
	addModulesPathFlag(cmd.Flags())
	return cmd
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Build a seed graph and run its walkers",
		Long: `Load the modules, build the seed graph chosen with --graph (or the only
one defined), spawn its walkers and run them to completion. Reports are
printed per walker. The graph can be saved as a snapshot, streamed to a
socket.io trace server and served over the inspection API.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v, args)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(commandContext(cmd))
		},
	}
	fs := cmd.Flags()
	addModulesPathFlag(fs)
	fs.StringP("graph", "g", "", "Seed graph to run. Defaults to the only graph defined.")
	fs.Int("workers", 10, "Number of walkers running concurrently.")
	fs.Bool("halt-on-error", false, "Stop all walkers at the first ability error.")
	fs.Int("inspect-port", 0, "Port for the HTTP inspection server. 0 is disabled.")
	fs.Bool("serve", false, "Keep the inspection server running after the walkers finish.")
	addSnapshotFlags(fs)
	fs.String("snapshot-name", "", "Name of the saved snapshot. Defaults to the graph name.")
	fs.String("trace-url", "", "socket.io server to stream walker traces to.")
	fs.String("trace-namespace", "/", "socket.io namespace for walker traces.")
	return cmd
}

func newDescribeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [path]",
		Short: "List modules, architypes, abilities, tests and graphs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v, args)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Describe(cmd.OutOrStdout())
		},
	}
	addModulesPathFlag(cmd.Flags())
	return cmd
}

func newSnapshotCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect saved graph snapshots",
	}

	list := &cobra.Command{
		Use:   "list [path]",
		Short: "List saved snapshots, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v, args)
			if err != nil {
				return err
			}
			defer a.Close()

			infos, err := a.ListSnapshots(commandContext(cmd))
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots saved yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tNODES\tEDGES")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", info.ID, info.Name, info.Created.Format(time.RFC3339), info.Nodes, info.Edges)
			}
			return tw.Flush()
		},
	}
	addModulesPathFlag(list.Flags())
	addSnapshotFlags(list.Flags())

	restore := &cobra.Command{
		Use:   "restore <path> <id>",
		Short: "Load modules, restore a snapshot and optionally serve it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, v, args[:1])
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.LoadModules(); err != nil {
				return err
			}
			n, err := a.RestoreSnapshot(commandContext(cmd), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d instances from %s\n", n, args[1])
			return a.Inspect(commandContext(cmd))
		},
	}
	restore.Flags().Int("inspect-port", 0, "Port for the HTTP inspection server. 0 is disabled.")
	restore.Flags().Bool("serve", false, "Keep the inspection server running until interrupted.")
	addSnapshotFlags(restore.Flags())

	cmd.AddCommand(list, restore)
	return cmd
}
