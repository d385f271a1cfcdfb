package tree

import "strings"

const (
	leafBit   = '0'
	branchBit = '1'
)

// firstEncodedGeneration skips the forced root structure, which carries no
// information.
const firstEncodedGeneration = 2

// NodesAtGeneration returns one character per node at depth gen, in
// depth-first left-to-right order: '0' for a leaf, '1' for a branch. Paths
// that end before gen contribute nothing.
func NodesAtGeneration(root *Node, gen uint) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	stack := []visit{{node: root}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v.depth == gen {
			sb.WriteByte(bit(v.node))
			continue
		}
		if !v.node.IsLeaf() {
			stack = append(stack,
				visit{node: v.node.right, depth: v.depth + 1},
				visit{node: v.node.left, depth: v.depth + 1},
			)
		}
	}
	return sb.String()
}

// Generations returns the row for every generation from 0 to
// MaxGeneration(root). Row g equals NodesAtGeneration(root, g); all rows
// are built in a single breadth-first pass.
func Generations(root *Node) []string {
	if root == nil {
		return nil
	}
	var rows []string
	level := []*Node{root}
	for len(level) > 0 {
		var sb strings.Builder
		next := make([]*Node, 0, 2*len(level))
		for _, n := range level {
			sb.WriteByte(bit(n))
			if !n.IsLeaf() {
				next = append(next, n.left, n.right)
			}
		}
		rows = append(rows, sb.String())
		level = next
	}
	return rows
}

// Encode concatenates the rows of generations 2 through MaxGeneration(root).
// The result is a deterministic fingerprint of the tree's shape below the
// forced root levels.
func Encode(root *Node) string {
	rows := Generations(root)
	if len(rows) <= firstEncodedGeneration {
		return ""
	}
	return strings.Join(rows[firstEncodedGeneration:], "")
}

func bit(n *Node) byte {
	if n.IsLeaf() {
		return leafBit
	}
	return branchBit
}
