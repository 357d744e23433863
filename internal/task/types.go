package task

import "fmt"

// Status はタスクのステータスを表す。
type Status string

const (
	// StatusTodo は未着手のタスクを表す。
	StatusTodo Status = "todo"
	// StatusInProgress は作業中のタスクを表す。
	StatusInProgress Status = "in_progress"
	// StatusDone は完了したタスクを表す。
	StatusDone Status = "done"
)

// ParseStatus は文字列をステータスに変換する。列挙にない値はエラーを返す。
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusTodo, StatusInProgress, StatusDone:
		return st, nil
	}
	return "", fmt.Errorf("未知のステータス: %q", s)
}

// Priority はタスクの優先度を表す。
type Priority string

const (
	// PriorityLow は低優先度を表す。
	PriorityLow Priority = "low"
	// PriorityMedium は中優先度を表す。
	PriorityMedium Priority = "medium"
	// PriorityHigh は高優先度を表す。
	PriorityHigh Priority = "high"
)

// ParsePriority は文字列を優先度に変換する。列挙にない値はエラーを返す。
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("未知の優先度: %q", s)
}
