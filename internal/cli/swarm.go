package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Colony/internal/domain"
)

// NewSwarmCmd создаёт группу команд для swarm.
func NewSwarmCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Manage agent swarms",
	}

	cmd.AddCommand(
		newSwarmRunCmd(backendFn, outputFn),
		newSwarmCreateCmd(backendFn, outputFn),
		newSwarmShowCmd(backendFn, outputFn),
		newSwarmDeleteCmd(backendFn, outputFn),
		newSwarmAddAgentCmd(backendFn, outputFn),
		newSwarmRemoveAgentCmd(backendFn, outputFn),
		newSwarmTaskCmd(backendFn, outputFn),
	)

	return cmd
}

// taskFlags — общие флаги задачи.
type taskFlags struct {
	id      string
	kind    string
	payload string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "task-id", "", "Task ID (generated if empty)")
	cmd.Flags().StringVar(&f.kind, "kind", "", "Task kind (default: task)")
	cmd.Flags().StringVar(&f.payload, "payload", "", "Task payload: JSON, @file or -")
}

func (f *taskFlags) task() (domain.Task, error) {
	task := domain.Task{ID: f.id, Kind: f.kind}
	switch {
	case f.payload == "":
	case f.payload == "-" || strings.HasPrefix(f.payload, "@"):
		raw, err := readParams(f.payload)
		if err != nil {
			return task, err
		}
		task.Payload = parseValue(string(raw))
	default:
		// Не JSON — строка как есть.
		task.Payload = parseValue(f.payload)
	}
	return task, nil
}

func newSwarmRunCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var tf taskFlags
	var keep bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Create a swarm from a spec, dispatch one task and print the result",
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
			task, err := tf.task()
			if err != nil {
				return err
			}

			snap, err := backend.CreateSwarm(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if !keep {
				defer backend.DeleteSwarm(cmd.Context(), snap.ID)
			}

			res, err := backend.DispatchTask(cmd.Context(), snap.ID, task)
			if err != nil {
				return err
			}

			out.TaskResult(res)
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the swarm after the task completes")

	return cmd
}

func newSwarmCreateCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "create FILE",
		Short: "Create a swarm from a spec (JSON or YAML, - for stdin)",
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

			snap, err := backend.CreateSwarm(cmd.Context(), spec)
			if err != nil {
				return err
			}

			out.Notice("Swarm created")
			out.Swarm(snap)
			return nil
		},
	}
}

func newSwarmShowCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show swarm roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			snap, err := backend.GetSwarm(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().Swarm(snap)
			return nil
		},
	}
}

func newSwarmDeleteCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a swarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			if err := backend.DeleteSwarm(cmd.Context(), args[0]); err != nil {
				return err
			}

			outputFn().Notice("Swarm deleted")
			return nil
		},
	}
}

func newSwarmAddAgentCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var role domain.RoleSpec

	cmd := &cobra.Command{
		Use:   "add-agent SWARM_ID",
		Short: "Add an agent to a swarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			agent, err := backend.AddAgent(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}

			out.Notice("Agent added")
			out.Agent(agent)
			return nil
		},
	}

	cmd.Flags().StringVar(&role.Name, "role", "", "Agent role (required)")
	cmd.Flags().StringVar(&role.Type, "type", "", "Agent type")
	cmd.Flags().StringSliceVar(&role.Capabilities, "capability", nil, "Agent capability (repeatable)")
	cmd.Flags().BoolVar(&role.IsCoordinator, "coordinator", false, "Make the agent the coordinator")
	cmd.MarkFlagRequired("role")

	return cmd
}

func newSwarmRemoveAgentCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-agent SWARM_ID AGENT_ID",
		Short: "Remove an agent from a swarm",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			if err := backend.RemoveAgent(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			outputFn().Notice("Agent removed")
			return nil
		},
	}
}

func newSwarmTaskCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "task SWARM_ID",
		Short: "Dispatch a task to an existing swarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}

			task, err := tf.task()
			if err != nil {
				return err
			}

			res, err := backend.DispatchTask(cmd.Context(), args[0], task)
			if err != nil {
				return err
			}

			outputFn().TaskResult(res)
			return nil
		},
	}

	tf.register(cmd)

	return cmd
}
