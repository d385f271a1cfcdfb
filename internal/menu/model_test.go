package menu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// mixedDraws yields trees with 6, 4 and again 6 leaves when N=5, M=10.
var mixedDraws = []uint32{9, 9, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0}

func newTestModel(t *testing.T, draws ...uint32) Model {
	t.Helper()
	eng := simulation.NewEngine(
		simulation.WithMetrics(simulation.NewMetricsWithRegistry(prometheus.NewRegistry())),
		simulation.WithSourceFactory(func(randomness.Strategy) (randomness.Source, error) {
			return randomness.NewSequence(draws...), nil
		}),
	)
	return New(Options{
		Engine:    eng,
		Settings:  simulation.Settings{Params: tree.Params{N: 5, M: 10}, SampleSize: 3},
		ExportDir: t.TempDir(),
		WarnAbove: 100000,
	})
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

// typeLine enters text into an open prompt and submits it.
func typeLine(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	if text != "" {
		m, _ = press(t, m, keys(text))
	}
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// finish runs the background part of an operation and feeds its result
// back to the model.
func finish(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		msg := c()
		if _, isTick := msg.(spinner.TickMsg); isTick {
			continue
		}
		m, _ = press(t, m, msg)
		return m
	}
	t.Fatal("operation produced no result")
	return m
}

func TestNew(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, screenMain, m.screen)
	assert.True(t, m.tree.IsLeaf())
	assert.False(t, m.palette.Enabled())
	assert.False(t, m.quitting)
	assert.Nil(t, m.Init())
}

func TestModel_View_Main(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "Greetings!\n"+
		"Current settings are:\n"+
		"\tBranch P: 0.5(5/10);\n"+
		"What would you like to do?\n"+
		"\t1. Change settings\n"+
		"\t2. Generate tree\n"+
		"\t3. Print tree\n"+
		"\t4. Collect stats from P\n"+
		"\t5. Write 3 samples to file\n"+
		"\t6. Write current tree to file\n"+
		"\t7. Exit\n> ", m.View())
}

func TestModel_View_HighRiskWarning(t *testing.T) {
	m := newTestModel(t)
	m.settings.Params = tree.Params{N: 7, M: 10}
	assert.Contains(t, m.View(), "Branch P: 0.7(7/10);\nWarning: high P may generate an infinite tree and crash.\n")
}

func TestModel_InvalidInput(t *testing.T) {
	m, cmd := press(t, newTestModel(t), keys("x"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Invalid input", m.status)
	assert.Contains(t, m.View(), "Invalid input\nGreetings!")

	// Status is shown once.
	m, _ = press(t, m, keys("1"))
	assert.Empty(t, m.status)
}

func TestModel_Quit(t *testing.T) {
	for _, msg := range []tea.Msg{keys("7"), tea.KeyMsg{Type: tea.KeyCtrlC}} {
		m, cmd := press(t, newTestModel(t), msg)
		assert.True(t, m.quitting)
		assert.NotNil(t, cmd)
		assert.Empty(t, m.View())
	}
}

func TestModel_Settings(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("1"))
	require.Equal(t, screenSettings, m.screen)
	assert.Equal(t, "Branch P: 0.5\n"+
		"What would you like to change?\n"+
		"\t1. n(5)\n"+
		"\t2. m(10)\n"+
		"\t3. Change RNG strategy(Fast)\n"+
		"\t4. Change sample size(3)\n"+
		"\t5. Enable/disable colours\n"+
		"\t6. Back\n> ", m.View())

	m, _ = press(t, m, keys("6"))
	assert.Equal(t, screenMain, m.screen)
}

func TestModel_SettingsPrompts(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		input  string
		status string
		check  func(t *testing.T, s simulation.Settings)
	}{
		{
			name:   "change n",
			key:    "1",
			input:  "7",
			status: "Changed n to 7",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint32(7), s.Params.N) },
		},
		{
			name:   "change m",
			key:    "2",
			input:  "20",
			status: "Changed m to 20",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint32(20), s.Params.M) },
		},
		{
			name:   "change sample size",
			key:    "4",
			input:  "500",
			status: "Changed sample size to 500\n",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint(500), s.SampleSize) },
		},
		{
			name:   "large sample size warns",
			key:    "4",
			input:  "200000",
			status: "Changed sample size to 200000\nWarning: sample size is very large",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint(200000), s.SampleSize) },
		},
		{
			name:   "not a number",
			key:    "1",
			input:  "abc",
			status: "Error parsing input: invalid syntax",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint32(5), s.Params.N) },
		},
		{
			name:   "out of range",
			key:    "1",
			input:  "4294967296",
			status: "Error parsing input: value out of range",
		},
		{
			name:   "zero m",
			key:    "2",
			input:  "0",
			status: "Error parsing input: m must be greater than 0",
			check:  func(t *testing.T, s simulation.Settings) { assert.Equal(t, uint32(10), s.Params.M) },
		},
		{
			name:   "zero sample size",
			key:    "4",
			input:  "0",
			status: "Error parsing input: sample size must be greater than 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(t, newTestModel(t), keys("1"), keys(tt.key))
			require.Equal(t, screenPrompt, m.screen)

			m, _ = typeLine(t, m, tt.input)
			assert.Equal(t, screenSettings, m.screen)
			assert.Equal(t, tt.status, m.status)
			if tt.check != nil {
				tt.check(t, m.Settings())
			}
		})
	}
}

func TestModel_PromptEscape(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("1"), keys("1"), keys("9"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenSettings, m.screen)
	assert.Equal(t, uint32(5), m.settings.Params.N)
	assert.Empty(t, m.status)
}

func TestModel_ToggleStrategy(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("1"), keys("3"))
	assert.Equal(t, randomness.StrategySecure, m.settings.Strategy)
	assert.Equal(t, "Changed RNG strategy to Secure", m.status)

	m, _ = press(t, m, keys("3"))
	assert.Equal(t, randomness.StrategyFast, m.settings.Strategy)
	assert.Equal(t, "Changed RNG strategy to Fast", m.status)
}

func TestModel_ToggleColours(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("1"), keys("5"))
	assert.True(t, m.palette.Enabled())
	assert.Contains(t, m.status, "Colours are now enabled")
	assert.Contains(t, m.status, "\x1b[32m")

	m, _ = press(t, m, keys("5"))
	assert.False(t, m.palette.Enabled())
	assert.Equal(t, "Colours are now disabled", m.status)
}

func TestModel_GenerateTree(t *testing.T) {
	m, cmd := press(t, newTestModel(t, mixedDraws...), keys("2"))
	assert.Equal(t, screenBusy, m.screen)
	assert.Contains(t, m.View(), "Generating tree...")

	m = finish(t, m, cmd)
	assert.Equal(t, screenMain, m.screen)
	assert.Equal(t, "10001000", tree.Encode(m.tree))
	assert.Equal(t, "Tree generated\nLeaves: 6\nBranches: 5\nNodes: 11\nGenerations: 4", m.status)
}

func TestModel_GenerateTree_Error(t *testing.T) {
	m := newTestModel(t)
	m.settings.Params.M = 0
	m, cmd := press(t, m, keys("2"))
	m = finish(t, m, cmd)
	assert.Contains(t, m.status, "Error generating tree: invalid process parameters")
	assert.True(t, m.tree.IsLeaf())
}

func TestModel_PrintTree(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("3"))
	assert.Equal(t, "Root\nRolls: \nGen 0: 0\nLeaves: 1\nBranches: 0\nNodes: 1\nGenerations: 0", m.status)
}

func TestModel_CollectStats(t *testing.T) {
	m, cmd := press(t, newTestModel(t, mixedDraws...), keys("4"))
	m = finish(t, m, cmd)

	assert.Equal(t, "Generated 3 samples:\n"+
		"Tree stats:"+
		"\n\tMin = 4 (↑4)"+
		"\n\tMedian = 6 (↑6)"+
		"\n\tMax = 6 (↑6)"+
		"\n\tAverage = 5 (↑5)"+
		"\n\tσ = 1 (↑1)", m.status)
	assert.Equal(t, stats.Summary{Min: 4, Median: 6, Max: 6, Mean: 5, StdDev: 1}, m.prev)
	assert.Equal(t, []float64{5}, m.means)
	assert.Contains(t, m.View(), "Mean leaves per stats run")

	// A second identical run shows no movement.
	m, cmd = press(t, m, keys("4"))
	m = finish(t, m, cmd)
	assert.Contains(t, m.status, "\tMin = 4 (=0)")
	assert.Equal(t, []float64{5, 5}, m.means)
}

func TestModel_CancelStats(t *testing.T) {
	m, cmd := press(t, newTestModel(t, mixedDraws...), keys("4"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenMain, m.screen)
	assert.Equal(t, "Cancelled", m.status)

	// The late result of the cancelled run is dropped.
	m = finish(t, m, cmd)
	assert.Equal(t, "Cancelled", m.status)
	assert.Equal(t, stats.Summary{}, m.prev)
}

func TestModel_WriteSamples(t *testing.T) {
	m, _ := press(t, newTestModel(t, mixedDraws...), keys("5"))
	require.Equal(t, screenPrompt, m.screen)
	assert.Contains(t, m.View(), "Enter filename without extension[5-10-x3]: ")

	m, cmd := typeLine(t, m, "")
	m = finish(t, m, cmd)
	assert.Equal(t, "Wrote 3 samples to file 5-10-x3", m.status)

	data, err := os.ReadFile(filepath.Join(m.exportDir, "5-10-x3.csv"))
	require.NoError(t, err)
	assert.Equal(t, "0,leaves,branches,nodes,generations,rolls\n"+
		"1,6,5,11,4,10001000\n"+
		"2,4,3,7,2,0000\n"+
		"3,6,5,11,4,10001000\n", string(data))
}

func TestModel_WriteTree(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("6"))
	assert.Contains(t, m.View(), "Enter filename without extension[1-0-1-0]: ")

	m, cmd := typeLine(t, m, "single")
	m = finish(t, m, cmd)
	assert.Equal(t, "Wrote current tree to file single", m.status)

	data, err := os.ReadFile(filepath.Join(m.exportDir, "single.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1,0,1,0,\n", string(data))
}

func TestModel_WriteTree_InvalidName(t *testing.T) {
	m, _ := press(t, newTestModel(t), keys("6"))
	m, cmd := typeLine(t, m, "../escape")
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "Error writing file: invalid export file name")
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := range historySize + 5 {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, 5.0, h[0])
}
