package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// Rolls lists the encoding of t followed by one "Gen g: row" line per
// generation. Generation labels are centred to the width of the deepest
// index and rows are tinted by generation.
func Rolls(t *tree.Node, p Palette) string {
	rows := tree.Generations(t)

	var sb strings.Builder
	sb.WriteString("Rolls: ")
	for g := 2; g < len(rows); g++ {
		sb.WriteString(p.Paint(rows[g], Tint(g%8)))
	}
	sb.WriteByte('\n')

	width := len(strconv.Itoa(max(len(rows)-1, 0)))
	for g, row := range rows {
		fmt.Fprintf(&sb, "Gen %s: %s\n", centre(strconv.Itoa(g), width), p.Paint(row, Tint(g%8)))
	}
	return sb.String()
}

// centre pads s to width, putting the odd space on the right.
func centre(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
