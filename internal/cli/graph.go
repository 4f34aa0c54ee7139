package cli

import (
	"github.com/spf13/cobra"
)

// NewGraphCmd создаёт группу команд для графов.
func NewGraphCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Run and inspect task graphs",
	}

	cmd.AddCommand(
		newGraphRunCmd(backendFn, outputFn),
		newGraphShowCmd(backendFn, outputFn),
		newGraphOrderCmd(backendFn, outputFn),
	)

	return cmd
}

func newGraphRunCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Submit a graph spec (JSON or YAML, - for stdin) and wait for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			spec, err := readSpec(args[0])
			if err != nil {
				return err
			}

			snap, err := backend.SubmitGraph(cmd.Context(), spec)
			if snap.ID != "" {
				out.Graph(snap)
			}
			if err != nil {
				return err
			}

			out.Notice("Graph %s %s", snap.ID, snap.State)
			return nil
		},
	}
}

func newGraphShowCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show graph state and node results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			snap, err := backend.GetGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().Graph(snap)
			return nil
		},
	}
}

func newGraphOrderCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "order ID",
		Short: "Show topological order of graph nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			order, err := backend.GraphOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().Order(order)
			return nil
		},
	}
}
