// Colony — движок графов задач и swarm-координации агентов.
//
// Использование:
//
//	colony [--api-url URL] [--config FILE] [--json] <command> [flags]
//
// Команды:
//
//	serve      HTTP API, метрики и публикация событий
//	graph      Запуск и просмотр графов задач
//	swarm      Управление swarm и отправка задач
//	solve      Алгоритмы solver
//	consensus  Голосование по готовым значениям
//
// Без --api-url команды выполняются в текущем процессе.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Colony/internal/cli"
	"github.com/shaiso/Colony/internal/config"
	"github.com/shaiso/Colony/internal/orchestrator"
	"github.com/shaiso/Colony/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var configPath string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "colony",
		Short:         "Colony — task graphs and agent swarms",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API server URL (empty: run in-process)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $COLONY_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	var local *cli.Local
	backendFn := func() (cli.Backend, error) {
		if apiURL != "" {
			return cli.NewClient(apiURL), nil
		}
		if local != nil {
			return local, nil
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		// stdout занят результатом команды.
		logger := telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(cfg.Log.Level), cfg.Log.Format)
		local = cli.NewLocal(orchestrator.New(cli.OrchestratorConfig(cfg, logger)))
		return local, nil
	}

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		cli.NewGraphCmd(backendFn, outputFn),
		cli.NewSwarmCmd(backendFn, outputFn),
		cli.NewSolveCmd(backendFn, outputFn),
		cli.NewConsensusCmd(backendFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
