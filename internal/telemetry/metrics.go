package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики регистрируются в prometheus.DefaultRegisterer
// и отдаются через promhttp.Handler() на /metrics.
var (
	// GraphRuns — завершённые выполнения графов.
	GraphRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_graph_runs_total",
		Help: "Total graph executions by mode and final state",
	}, []string{"mode", "status"})

	// NodeExecutions — выполнения узлов.
	NodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_node_executions_total",
		Help: "Total node handler invocations by status",
	}, []string{"status"})

	// NodeDuration — длительность выполнения handler'а узла.
	NodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "colony_node_duration_seconds",
		Help:    "Node handler execution time",
		Buckets: prometheus.DefBuckets,
	})

	// SwarmTasks — задачи, отправленные в swarm.
	SwarmTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_swarm_tasks_total",
		Help: "Total swarm task dispatches by topology and status",
	}, []string{"topology", "status"})

	// SwarmConsensus — исходы голосования.
	SwarmConsensus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_swarm_consensus_total",
		Help: "Consensus outcomes",
	}, []string{"achieved"})

	// SwarmAgentFailures — ошибки отдельных агентов.
	SwarmAgentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_swarm_agent_failures_total",
		Help: "Agent task failures by topology",
	}, []string{"topology"})

	// RegistryEvictions — вытеснения из реестров графов и swarm.
	RegistryEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_registry_evictions_total",
		Help: "Registry evictions by kind and reason",
	}, []string{"kind", "reason"})
)
