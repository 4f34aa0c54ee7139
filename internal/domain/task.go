package domain

// Виды задач, которые Coordinator создаёт сам.
const (
	// TaskKindDefault — вид задачи, если вызывающий его не указал.
	TaskKindDefault = "task"

	// TaskKindAggregate — hub в star-топологии сводит результаты spokes.
	TaskKindAggregate = "aggregate"

	// TaskKindDecompose — координатор в hierarchical разбивает задачу на подзадачи.
	TaskKindDecompose = "decompose"

	// TaskKindSubtask — подзадача, назначенная исполнителю.
	TaskKindSubtask = "subtask"

	// TaskKindSynthesize — координатор собирает результаты подзадач.
	TaskKindSynthesize = "synthesize"
)

// Task — непрозрачная единица работы для агента.
//
// Payload передаётся TaskExecutor'у без интерпретации.
type Task struct {
	// ID — идентификатор задачи.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Kind — вид задачи (task, aggregate, decompose, subtask, synthesize или свой).
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Payload — данные задачи. Должны сериализоваться в JSON.
	Payload any `json:"payload,omitempty" yaml:"payload,omitempty"`

	// ParentID — ID исходной задачи для производных задач.
	ParentID string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

// Derive создаёт производную задачу заданного вида.
func (t Task) Derive(id, kind string, payload any) Task {
	return Task{
		ID:       id,
		Kind:     kind,
		Payload:  payload,
		ParentID: t.ID,
	}
}
