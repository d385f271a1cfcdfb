package menu

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/branchsim/internal/export"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// Message types
type treeMsg struct {
	op   int
	root *tree.Node
	err  error
}

type statsMsg struct {
	op      int
	size    uint
	summary stats.Summary
	err     error
}

type writeMsg struct {
	op      int
	samples bool
	name    string
	path    string
	count   uint
	err     error
}

func generate(ctx context.Context, op int, eng *simulation.Engine, s simulation.Settings) tea.Msg {
	root, err := eng.Generate(ctx, s)
	return treeMsg{op: op, root: root, err: err}
}

func collectStats(ctx context.Context, op int, eng *simulation.Engine, s simulation.Settings) tea.Msg {
	summary, err := eng.SampleStats(ctx, s)
	return statsMsg{op: op, size: s.SampleSize, summary: summary, err: err}
}

func writeSamples(ctx context.Context, op int, eng *simulation.Engine, s simulation.Settings, name, path string) tea.Msg {
	count, err := export.SamplesToFile(ctx, eng, s, path)
	return writeMsg{op: op, samples: true, name: name, path: path, count: count, err: err}
}

func writeTree(op int, root *tree.Node, name, path string) tea.Msg {
	err := export.TreeToFile(root, path)
	return writeMsg{op: op, name: name, path: path, count: 1, err: err}
}
