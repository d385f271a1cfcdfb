package menu

import (
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/branchsim/internal/render"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
)

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenSettings:
		return m.settingsView()
	case screenPrompt:
		return m.promptView()
	case screenBusy:
		return m.busyView()
	default:
		return m.mainView()
	}
}

func (m Model) withStatus(sb *strings.Builder) {
	sb.WriteString(m.status)
	if m.status != "" && !strings.HasSuffix(m.status, "\n") {
		sb.WriteByte('\n')
	}
}

func (m Model) mainView() string {
	p := m.settings.Params
	var sb strings.Builder
	m.withStatus(&sb)
	sb.WriteString("Greetings!\nCurrent settings are:\n\tBranch P: ")
	sb.WriteString(formatProbability(p.Probability()))
	sb.WriteString("(" + p.String() + ");")
	if p.HighRisk() {
		sb.WriteString(m.palette.Paint("\nWarning: high P may generate an infinite tree and crash.", render.Red))
	}
	sb.WriteString("\nWhat would you like to do?\n" +
		"\t1. Change settings\n" +
		"\t2. Generate tree\n" +
		"\t3. Print tree\n" +
		"\t4. Collect stats from P\n" +
		"\t5. Write " + m.palette.Paint(formatUint(m.settings.SampleSize), render.Blue) + " samples to file\n" +
		"\t6. Write current tree to file\n" +
		"\t7. Exit\n> ")

	if len(m.means) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("┃ Mean leaves per stats run") + "\n")
		sb.WriteString(meanSparkline(m.means))
	}
	return sb.String()
}

func (m Model) settingsView() string {
	var sb strings.Builder
	m.withStatus(&sb)
	sb.WriteString("Branch P: " + formatProbability(m.settings.Params.Probability()) + "\n" +
		"What would you like to change?\n" +
		"\t1. n(" + m.palette.Paint(formatUint(uint(m.settings.Params.N)), render.Blue) + ")\n" +
		"\t2. m(" + m.palette.Paint(formatUint(uint(m.settings.Params.M)), render.Blue) + ")\n" +
		"\t3. Change RNG strategy(" + m.strategyLabel() + ")\n" +
		"\t4. Change sample size(" + m.palette.Paint(formatUint(m.settings.SampleSize), render.Blue) + ")\n" +
		"\t5. Enable/disable colours\n" +
		"\t6. Back\n> ")
	return sb.String()
}

func (m Model) promptView() string {
	return m.input.View() + "\n" + footerStyle.Render("[enter] confirm  [esc] cancel")
}

func (m Model) busyView() string {
	return m.spinner.View() + " " + m.busyLabel + "...\n" + footerStyle.Render("[esc] cancel  [ctrl+c] quit")
}

// meanSparkline draws the mean leaf count history.
func meanSparkline(data []float64) string {
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()
	return sparklineStyle.Render(spark.View())
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
