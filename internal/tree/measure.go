package tree

// Measurements are the structural counts of one tree.
type Measurements struct {
	Leaves      uint `json:"leaves"`
	Branches    uint `json:"branches"`
	Nodes       uint `json:"nodes"`
	Generations uint `json:"generations"`
}

type visit struct {
	node  *Node
	depth uint
}

// walk visits every node depth-first, left before right.
func walk(root *Node, fn func(n *Node, depth uint)) {
	if root == nil {
		return
	}
	stack := []visit{{node: root}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(v.node, v.depth)
		if !v.node.IsLeaf() {
			stack = append(stack,
				visit{node: v.node.right, depth: v.depth + 1},
				visit{node: v.node.left, depth: v.depth + 1},
			)
		}
	}
}

// CountLeaves returns the number of leaves.
func CountLeaves(root *Node) uint {
	var count uint
	walk(root, func(n *Node, _ uint) {
		if n.IsLeaf() {
			count++
		}
	})
	return count
}

// CountBranches returns the number of internal nodes.
func CountBranches(root *Node) uint {
	var count uint
	walk(root, func(n *Node, _ uint) {
		if !n.IsLeaf() {
			count++
		}
	})
	return count
}

// CountNodes returns the number of nodes; always leaves + branches.
func CountNodes(root *Node) uint {
	var count uint
	walk(root, func(*Node, uint) { count++ })
	return count
}

// MaxGeneration returns the depth of the deepest node. A lone leaf is 0.
func MaxGeneration(root *Node) uint {
	var deepest uint
	walk(root, func(_ *Node, depth uint) {
		deepest = max(deepest, depth)
	})
	return deepest
}

// Measure computes all counts in one traversal.
func Measure(root *Node) Measurements {
	var m Measurements
	walk(root, func(n *Node, depth uint) {
		m.Nodes++
		if n.IsLeaf() {
			m.Leaves++
		} else {
			m.Branches++
		}
		m.Generations = max(m.Generations, depth)
	})
	return m
}
