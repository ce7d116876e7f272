package workflow

import (
	"approval-flow/shared"
	"go.uber.org/zap"
)

// MaxHistorySize caps the number of retained snapshots
const MaxHistorySize = 50

// Snapshot is a deep copy of the graph at one point in time
type Snapshot struct {
	Nodes []shared.Node `json:"nodes"`
	Edges []shared.Edge `json:"edges"`
}

func takeSnapshot(nodes []shared.Node, edges []shared.Edge) Snapshot {
	return Snapshot{Nodes: shared.CloneNodes(nodes), Edges: shared.CloneEdges(edges)}
}

// HistoryState is a linear undo list with a pointer to the current snapshot
type HistoryState struct {
	History      []Snapshot `json:"history"`
	HistoryIndex int        `json:"historyIndex"`
}

// HistoryStep is the graph to restore after an undo or redo
type HistoryStep struct {
	Nodes        []shared.Node
	Edges        []shared.Edge
	HistoryIndex int
}

// InitializeHistory starts a history holding one snapshot of the graph
func InitializeHistory(nodes []shared.Node, edges []shared.Edge) HistoryState {
	return HistoryState{
		History:      []Snapshot{takeSnapshot(nodes, edges)},
		HistoryIndex: 0,
	}
}

// PushHistoryState discards snapshots after the current index, appends the graph and
// drops the oldest snapshots beyond MaxHistorySize. The input state is not modified.
func PushHistoryState(state HistoryState, nodes []shared.Node, edges []shared.Edge) HistoryState {
	keep := state.HistoryIndex + 1
	if keep > len(state.History) {
		keep = len(state.History)
	}
	if keep < 0 {
		keep = 0
	}

	history := make([]Snapshot, 0, keep+1)
	history = append(history, state.History[:keep]...)
	history = append(history, takeSnapshot(nodes, edges))
	if len(history) > MaxHistorySize {
		history = history[len(history)-MaxHistorySize:]
	}
	return HistoryState{History: history, HistoryIndex: len(history) - 1}
}

func CanUndoHistory(index int) bool {
	return index > 0
}

func CanRedoHistory(history []Snapshot, index int) bool {
	return index < len(history)-1
}

// UndoHistory returns the snapshot before the current one. ok is false when there is
// nothing to undo.
func UndoHistory(state HistoryState) (step HistoryStep, ok bool) {
	if !CanUndoHistory(state.HistoryIndex) || state.HistoryIndex > len(state.History) {
		return HistoryStep{}, false
	}
	return stepTo(state, state.HistoryIndex-1), true
}

// RedoHistory returns the snapshot after the current one. ok is false when there is
// nothing to redo.
func RedoHistory(state HistoryState) (step HistoryStep, ok bool) {
	if !CanRedoHistory(state.History, state.HistoryIndex) || state.HistoryIndex < -1 {
		return HistoryStep{}, false
	}
	return stepTo(state, state.HistoryIndex+1), true
}

func stepTo(state HistoryState, index int) HistoryStep {
	snap := state.History[index]
	return HistoryStep{
		Nodes:        shared.CloneNodes(snap.Nodes),
		Edges:        shared.CloneEdges(snap.Edges),
		HistoryIndex: index,
	}
}

// HistoryManager keeps a HistoryState for a single editing session. It is not safe for
// concurrent use.
type HistoryManager struct {
	state  HistoryState
	logger *zap.Logger
}

// NewHistoryManager creates a manager seeded with the given graph
func NewHistoryManager(nodes []shared.Node, edges []shared.Edge, logger *zap.Logger) *HistoryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryManager{
		state:  InitializeHistory(nodes, edges),
		logger: logger,
	}
}

// Record pushes the graph as the newest snapshot
func (hm *HistoryManager) Record(nodes []shared.Node, edges []shared.Edge) {
	hm.state = PushHistoryState(hm.state, nodes, edges)
	hm.logger.Debug("History snapshot recorded",
		zap.Int("index", hm.state.HistoryIndex),
		zap.Int("size", len(hm.state.History)))
}

// Undo moves back one snapshot and returns the graph to restore
func (hm *HistoryManager) Undo() ([]shared.Node, []shared.Edge, bool) {
	step, ok := UndoHistory(hm.state)
	if !ok {
		hm.logger.Debug("Nothing to undo")
		return nil, nil, false
	}
	hm.state.HistoryIndex = step.HistoryIndex
	return step.Nodes, step.Edges, true
}

// Redo moves forward one snapshot and returns the graph to restore
func (hm *HistoryManager) Redo() ([]shared.Node, []shared.Edge, bool) {
	step, ok := RedoHistory(hm.state)
	if !ok {
		hm.logger.Debug("Nothing to redo")
		return nil, nil, false
	}
	hm.state.HistoryIndex = step.HistoryIndex
	return step.Nodes, step.Edges, true
}

func (hm *HistoryManager) CanUndo() bool {
	return CanUndoHistory(hm.state.HistoryIndex)
}

func (hm *HistoryManager) CanRedo() bool {
	return CanRedoHistory(hm.state.History, hm.state.HistoryIndex)
}

// State returns the underlying history
func (hm *HistoryManager) State() HistoryState {
	return hm.state
}
