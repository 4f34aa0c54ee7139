package cli

import (
	"github.com/spf13/cobra"
)

// NewSolveCmd создаёт команду запуска алгоритмов solver.
//
// Без аргументов выводит список алгоритмов.
func NewSolveCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var params string

	cmd := &cobra.Command{
		Use:   "solve [ALGORITHM]",
		Short: "Run a solver algorithm or list available algorithms",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if len(args) == 0 {
				names, err := backend.Algorithms(cmd.Context())
				if err != nil {
					return err
				}
				out.Algorithms(names)
				return nil
			}

			raw, err := readParams(params)
			if err != nil {
				return err
			}

			result, err := backend.Solve(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}

			// Результат всегда JSON: таблица для вложенных структур бесполезна.
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&params, "params", "", "Algorithm params: JSON, @file or -")

	return cmd
}

// NewConsensusCmd создаёт команду голосования по готовым значениям.
func NewConsensusCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "consensus VALUE...",
		Short: "Vote over values (JSON literals or plain strings)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			results := make([]any, len(args))
			for i, a := range args {
				results[i] = parseValue(a)
			}

			res, err := backend.Consensus(cmd.Context(), results, threshold)
			if err != nil {
				return err
			}

			out.Consensus(res)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Consensus threshold in (0, 1] (default 0.66)")

	return cmd
}
