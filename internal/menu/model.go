// Package menu implements the interactive terminal menu.
package menu

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/branchsim/internal/export"
	"github.com/fyrsmithlabs/branchsim/internal/logging"
	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/render"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

type screen int

const (
	screenMain screen = iota
	screenSettings
	screenPrompt
	screenBusy
)

type promptKind int

const (
	promptN promptKind = iota
	promptM
	promptSampleSize
	promptSampleFile
	promptTreeFile
)

// historySize bounds the mean leaf count history drawn as a sparkline.
const historySize = 30

// Options configure a new menu.
type Options struct {
	Context   context.Context
	Engine    *simulation.Engine
	Logger    *logging.Logger
	Settings  simulation.Settings
	Colour    bool
	ExportDir string
	// WarnAbove is the sample size beyond which a warning is shown.
	WarnAbove uint
}

// Model is the bubbletea model of the menu.
type Model struct {
	ctx       context.Context
	engine    *simulation.Engine
	logger    *logging.Logger
	settings  simulation.Settings
	palette   render.Palette
	exportDir string
	warnAbove uint

	screen     screen
	prompt     promptKind
	promptFrom screen
	fallback   string
	input      textinput.Model
	spinner    spinner.Model
	busyLabel  string

	tree   *tree.Node
	prev   stats.Summary
	means  []float64
	status string

	op       int
	cancel   context.CancelFunc
	quitting bool
}

// New creates the menu model. The current tree starts as a lone leaf.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	eng := opts.Engine
	if eng == nil {
		eng = simulation.NewEngine(simulation.WithLogger(logger))
	}

	input := textinput.New()
	input.CharLimit = 255

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		engine:    eng,
		logger:    logger.Named("menu"),
		settings:  opts.Settings,
		palette:   render.NewPalette(opts.Colour),
		exportDir: opts.ExportDir,
		warnAbove: opts.WarnAbove,
		input:     input,
		spinner:   sp,
		tree:      tree.Leaf(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Settings returns the current run settings.
func (m Model) Settings() simulation.Settings {
	return m.settings
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopOp()
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenMain:
			return m.updateMain(msg)
		case screenSettings:
			return m.updateSettings(msg)
		case screenPrompt:
			return m.updatePrompt(msg)
		case screenBusy:
			return m.updateBusy(msg)
		}

	case spinner.TickMsg:
		if m.screen != screenBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case treeMsg:
		if msg.op != m.op {
			return m, nil
		}
		m.finishOp()
		if msg.err != nil {
			m.status = m.palette.Paint("Error generating tree: "+msg.err.Error(), render.Red)
			return m, nil
		}
		m.tree = msg.root
		m.status = m.palette.Paint("Tree generated", render.Green) + "\n" + render.TreeStats(tree.Measure(m.tree))
		return m, nil

	case statsMsg:
		if msg.op != m.op {
			return m, nil
		}
		m.finishOp()
		if msg.err != nil {
			m.status = m.palette.Paint("Error collecting stats: "+msg.err.Error(), render.Red)
			return m, nil
		}
		m.status = "Generated " + m.palette.Paint(formatUint(msg.size), render.Blue) + " samples:\n" +
			render.SummaryDelta(m.prev, msg.summary, m.palette)
		m.prev = msg.summary
		m.means = appendToHistory(m.means, float64(msg.summary.Mean))
		return m, nil

	case writeMsg:
		if msg.op != m.op {
			return m, nil
		}
		m.finishOp()
		if msg.err != nil {
			m.status = m.palette.Paint("Error writing file: "+msg.err.Error(), render.Red)
			return m, nil
		}
		m.logger.Info(m.ctx, "export written", zap.String("path", msg.path), zap.Uint("records", msg.count))
		name := m.palette.Paint(msg.name, render.Blue)
		if msg.samples {
			m.status = "Wrote " + m.palette.Paint(formatUint(msg.count), render.Blue) + " samples to file " + name
		} else {
			m.status = "Wrote current tree to file " + name
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "1":
		m.screen = screenSettings
	case "2":
		return m.startOp("Generating tree", func(ctx context.Context, op int) tea.Msg {
			return generate(ctx, op, m.engine, m.settings)
		})
	case "3":
		m.status = render.Tree(m.tree) + render.Rolls(m.tree, m.palette) + render.TreeStats(tree.Measure(m.tree))
	case "4":
		return m.startOp("Collecting stats", func(ctx context.Context, op int) tea.Msg {
			return collectStats(ctx, op, m.engine, m.settings)
		})
	case "5":
		return m.openPrompt(promptSampleFile, export.DefaultSampleName(m.settings.Params, m.settings.SampleSize))
	case "6":
		return m.openPrompt(promptTreeFile, export.DefaultTreeName(tree.Measure(m.tree)))
	case "7":
		m.quitting = true
		return m, tea.Quit
	default:
		m.status = m.invalidInput()
	}
	return m, nil
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "1":
		return m.openPrompt(promptN, "")
	case "2":
		return m.openPrompt(promptM, "")
	case "3":
		m.settings.Strategy = m.settings.Strategy.Toggle()
		m.status = "Changed RNG strategy to " + m.strategyLabel()
	case "4":
		return m.openPrompt(promptSampleSize, "")
	case "5":
		m.palette = m.palette.Toggle()
		state := "disabled"
		if m.palette.Enabled() {
			state = "enabled"
		}
		m.status = m.palette.Paint("Colours are now "+state, render.Green)
	case "6", "esc":
		m.screen = screenMain
	default:
		m.status = m.invalidInput()
	}
	return m, nil
}

func (m Model) openPrompt(kind promptKind, fallback string) (tea.Model, tea.Cmd) {
	m.promptFrom = m.screen
	m.screen = screenPrompt
	m.prompt = kind
	m.fallback = fallback
	m.input.Reset()
	m.input.Prompt = promptText(kind, fallback)
	return m, m.input.Focus()
}

func promptText(kind promptKind, fallback string) string {
	switch kind {
	case promptN:
		return "Enter new n: "
	case promptM:
		return "Enter new m: "
	case promptSampleSize:
		return "Enter new sample size: "
	default:
		return "Enter filename without extension[" + fallback + "]: "
	}
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.screen = m.promptFrom
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		m.screen = m.promptFrom
		return m.submitPrompt(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptN, promptM, promptSampleSize:
		v, err := parseUint32(value)
		if err == nil && v == 0 && m.prompt == promptM {
			err = errors.New("m must be greater than 0")
		}
		if err == nil && v == 0 && m.prompt == promptSampleSize {
			err = errors.New("sample size must be greater than 0")
		}
		if err != nil {
			m.status = m.palette.Paint("Error parsing input: "+err.Error(), render.Red)
			return m, nil
		}
		m.applySetting(v)
		return m, nil

	case promptSampleFile:
		name := export.ChooseName(value, m.fallback)
		path, err := export.Path(m.exportDir, name)
		if err != nil {
			m.status = m.palette.Paint("Error writing file: "+err.Error(), render.Red)
			return m, nil
		}
		return m.startOp("Writing samples", func(ctx context.Context, op int) tea.Msg {
			return writeSamples(ctx, op, m.engine, m.settings, name, path)
		})

	case promptTreeFile:
		name := export.ChooseName(value, m.fallback)
		path, err := export.Path(m.exportDir, name)
		if err != nil {
			m.status = m.palette.Paint("Error writing file: "+err.Error(), render.Red)
			return m, nil
		}
		root := m.tree
		return m.startOp("Writing tree", func(_ context.Context, op int) tea.Msg {
			return writeTree(op, root, name, path)
		})
	}
	return m, nil
}

func (m *Model) applySetting(v uint32) {
	switch m.prompt {
	case promptN:
		m.settings.Params.N = v
		m.status = m.palette.Paint("Changed n to "+formatUint(uint(v)), render.Green)
	case promptM:
		m.settings.Params.M = v
		m.status = m.palette.Paint("Changed m to "+formatUint(uint(v)), render.Green)
	case promptSampleSize:
		m.settings.SampleSize = uint(v)
		m.status = "Changed sample size to " + m.palette.Paint(formatUint(uint(v)), render.Blue) + "\n"
		if m.settings.SampleSize > m.warnAbove {
			m.status += m.palette.Paint("Warning: sample size is very large", render.Red)
		}
	}
}

func (m Model) updateBusy(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEsc {
		return m, nil
	}
	m.stopOp()
	m.op++
	m.screen = screenMain
	m.status = m.palette.Paint("Cancelled", render.Red)
	return m, nil
}

// startOp runs fn in the background behind the spinner. Results carry the
// op number so late results of a cancelled op are dropped.
func (m Model) startOp(label string, fn func(ctx context.Context, op int) tea.Msg) (tea.Model, tea.Cmd) {
	m.stopOp()
	m.op++
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.screen = screenBusy
	m.busyLabel = label
	op := m.op
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		return fn(ctx, op)
	})
}

func (m *Model) finishOp() {
	m.stopOp()
	m.screen = screenMain
}

func (m *Model) stopOp() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m Model) invalidInput() string {
	return m.palette.Paint("Invalid input", render.Red)
}

func (m Model) strategyLabel() string {
	if m.settings.Strategy == randomness.StrategySecure {
		return m.palette.Paint("Secure", render.Magenta)
	}
	return m.palette.Paint("Fast", render.Green)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			return 0, ne.Err
		}
		return 0, err
	}
	return uint32(v), nil
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}
