package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Colony/internal/domain"
	"github.com/shaiso/Colony/internal/engine"
	"github.com/shaiso/Colony/internal/swarm"
)

// cellWidth — предел ширины ячейки с результатом.
const cellWidth = 60

// Output — вывод команд: таблицы в stdout, либо JSON при --json.
// Уведомления идут в stderr, чтобы stdout оставался разбираемым.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(os.Stdout, os.Stderr, jsonMode)
}

// NewOutputTo создаёт Output с произвольными writer'ами.
func NewOutputTo(w, errW io.Writer, jsonMode bool) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Notice пишет уведомление в stderr.
func (o *Output) Notice(format string, args ...any) {
	fmt.Fprintf(o.errW, format+"\n", args...)
}

// JSON выводит v с отступами независимо от режима.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Graph — узлы графа с состоянием и результатом.
func (o *Output) Graph(snap engine.GraphSnapshot) {
	if o.jsonMode {
		o.JSON(snap)
		return
	}
	t := newTable("NODE", "STATE", "HANDLER", "RESULT", "ERROR")
	for _, n := range snap.Nodes {
		t.add(n.ID, string(n.State), n.Handler, compact(n.Result), n.Error)
	}
	o.render(t)
}

// Order — топологический порядок узлов, с единицы.
func (o *Output) Order(order []string) {
	if o.jsonMode {
		o.JSON(order)
		return
	}
	t := newTable("#", "NODE")
	for i, id := range order {
		t.add(strconv.Itoa(i+1), id)
	}
	o.render(t)
}

// Swarm — состав swarm; сводка уходит в stderr.
func (o *Output) Swarm(snap swarm.SwarmSnapshot) {
	if o.jsonMode {
		o.JSON(snap)
		return
	}
	t := newAgentTable()
	for _, a := range snap.Agents {
		t.addAgent(a)
	}
	o.render(t)
	o.Notice("Swarm %s (%s, %d agents)", snap.ID, snap.Topology, len(snap.Agents))
}

// Agent — одна строка агента.
func (o *Output) Agent(a swarm.Agent) {
	if o.jsonMode {
		o.JSON(a)
		return
	}
	t := newAgentTable()
	t.addAgent(a)
	o.render(t)
}

// TaskResult — ответы агентов и сводка по задаче.
func (o *Output) TaskResult(res *swarm.TaskResult) {
	if o.jsonMode {
		o.JSON(res)
		return
	}

	t := newTable("AGENT", "ROLE", "KIND", "RESULT", "ERROR")
	for _, r := range res.AgentResults {
		t.add(r.AgentID, r.Role, r.Kind, compact(r.Result), r.Error)
	}
	o.render(t)

	kv := newTable("FIELD", "VALUE")
	kv.add("task", res.TaskID)
	kv.add("topology", string(res.Topology))
	kv.add("result", compact(res.Result))
	kv.add("duration", res.Duration.String())
	if len(res.FailedAgents) > 0 {
		kv.add("failed", strings.Join(res.FailedAgents, ","))
	}
	if res.Consensus != nil {
		kv.add("consensus", strconv.FormatBool(res.Consensus.Achieved))
		kv.add("confidence", strconv.FormatFloat(res.Consensus.Confidence, 'f', 2, 64))
	}
	o.render(kv)
}

// Consensus — итог голосования одной строкой.
func (o *Output) Consensus(res domain.ConsensusResult) {
	if o.jsonMode {
		o.JSON(res)
		return
	}
	t := newTable("ACHIEVED", "RESULT", "VOTES", "TOTAL", "CONFIDENCE")
	t.add(
		strconv.FormatBool(res.Achieved),
		compact(res.Result),
		strconv.Itoa(res.Votes),
		strconv.Itoa(res.Total),
		strconv.FormatFloat(res.Confidence, 'f', 2, 64),
	)
	o.render(t)
}

// Algorithms — имена алгоритмов solver.
func (o *Output) Algorithms(names []string) {
	if o.jsonMode {
		o.JSON(names)
		return
	}
	t := newTable("ALGORITHM")
	for _, n := range names {
		t.add(n)
	}
	o.render(t)
}

type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func newAgentTable() *table {
	return newTable("ID", "ROLE", "TYPE", "COORDINATOR", "STATE", "CONNECTIONS")
}

func (t *table) addAgent(a swarm.Agent) {
	t.add(a.ID, a.Role, a.Type, strconv.FormatBool(a.IsCoordinator), string(a.State), strconv.Itoa(len(a.Connections)))
}

// render выравнивает колонки через tabwriter; под заголовком — черта.
func (o *Output) render(t *table) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	underline := make([]string, len(t.headers))
	for i, h := range t.headers {
		underline[i] = strings.Repeat("-", len(h))
	}

	for _, line := range append([][]string{t.headers, underline}, t.rows...) {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	tw.Flush()
}

// compact — значение одной строкой: строки как есть, прочее как JSON.
func compact(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(data)
		}
	}
	if len(s) <= cellWidth {
		return s
	}
	return s[:cellWidth-3] + "..."
}
