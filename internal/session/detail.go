package session

import "github.com/davrell/chemviz/internal/api"

// DetailState is the lifecycle of the detail pane for the current selection.
type DetailState int

const (
	DetailEmpty DetailState = iota
	DetailLoading
	DetailReady
	DetailFailed
)

// Detail is the summary + row-data pair for the current selection. It is
// replaced wholesale on every state change: Ready always carries a complete
// snapshot, Failed never carries a partial one.
type Detail struct {
	State    DetailState
	Filename string
	Summary  api.Summary
	Rows     []api.Row
	Err      *api.Error
}

func (d Detail) String() string {
	switch d.State {
	case DetailLoading:
		return "loading"
	case DetailReady:
		return "ready"
	case DetailFailed:
		return "failed"
	default:
		return "empty"
	}
}
