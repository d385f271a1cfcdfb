package render

import (
	"slices"
	"strings"

	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

const (
	rootLabel   = "Root"
	openGuide   = "║"
	closedGuide = " "
	midPrefix   = "╠"
	lastPrefix  = "╚"
)

type drawFrame struct {
	node  *tree.Node
	depth uint
	last  bool
	// guides holds, for each ancestor generation from 1 to depth-1,
	// whether that ancestor still has a sibling below it.
	guides []bool
}

// Tree draws t with box-drawing characters, one node per line. The root
// line reads "Root"; every other node is "╠" for a left child or "╚" for
// a right child followed by "Branch" or "Leaf". A nil tree draws as a
// lone leaf.
func Tree(t *tree.Node) string {
	if t == nil {
		t = tree.Leaf()
	}
	var sb strings.Builder
	stack := []drawFrame{{node: t}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		writeLine(&sb, f)

		if f.node.IsLeaf() {
			continue
		}
		var guides []bool
		if f.depth > 0 {
			guides = append(slices.Clone(f.guides), !f.last)
		}
		stack = append(stack,
			drawFrame{node: f.node.Right(), depth: f.depth + 1, last: true, guides: guides},
			drawFrame{node: f.node.Left(), depth: f.depth + 1, guides: guides},
		)
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, f drawFrame) {
	if f.depth == 0 {
		sb.WriteString(rootLabel)
		sb.WriteByte('\n')
		return
	}
	for _, open := range f.guides {
		if open {
			sb.WriteString(openGuide)
		} else {
			sb.WriteString(closedGuide)
		}
	}
	if f.last {
		sb.WriteString(lastPrefix)
	} else {
		sb.WriteString(midPrefix)
	}
	if f.node.IsLeaf() {
		sb.WriteString("Leaf")
	} else {
		sb.WriteString("Branch")
	}
	sb.WriteByte('\n')
}
