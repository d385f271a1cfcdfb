package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/branchsim/internal/randomness"
)

var (
	// ErrDepthLimit is returned when generation would exceed Limits.MaxDepth.
	ErrDepthLimit = errors.New("tree depth limit exceeded")
	// ErrNodeLimit is returned when generation would exceed Limits.MaxNodes.
	ErrNodeLimit = errors.New("tree node limit exceeded")
)

// rootDepth is the generation at which the stochastic rule takes over from
// the forced root structure.
const rootDepth = 2

// cancelCheckInterval is how many work items run between context checks.
const cancelCheckInterval = 1024

// Limits optionally bounds generation. The zero value imposes no bounds, so
// a high branch probability may generate forever.
type Limits struct {
	// MaxDepth is the deepest generation a node may occupy. 0 disables the
	// check; otherwise it must be at least 2.
	MaxDepth uint `json:"max_depth" koanf:"max_depth"`
	// MaxNodes caps the total number of nodes. 0 disables the check.
	MaxNodes uint `json:"max_nodes" koanf:"max_nodes"`
	// Truncate turns nodes at MaxDepth into leaves instead of failing.
	Truncate bool `json:"truncate" koanf:"truncate"`
}

// Validate checks the limits are usable.
func (l Limits) Validate() error {
	if l.MaxDepth != 0 && l.MaxDepth < rootDepth {
		return fmt.Errorf("max depth must be 0 or at least %d, got %d", rootDepth, l.MaxDepth)
	}
	if l.Truncate && l.MaxDepth == 0 {
		return fmt.Errorf("truncate requires a max depth")
	}
	if l.MaxNodes != 0 && l.MaxNodes < 7 {
		return fmt.Errorf("max nodes must be 0 or at least 7, got %d", l.MaxNodes)
	}
	return nil
}

// task kinds for the generation work stack
const (
	growNode = iota
	growRight
)

type task struct {
	kind  int
	slot  **Node // growNode: where the new node goes
	owner *Node  // growRight: branch whose right child is pending
	depth uint
}

// Generate builds one tree with the branching process.
//
// The root is always Branch(Branch(g, g), Branch(g, g)), where every g is
// generated stochastically at depth 2. A stochastic node draws in [0, M):
// below M-N it is a leaf. Otherwise it is a branch whose left child is
// always generated again and whose right child is generated only if a
// second draw falls below N, and is a leaf otherwise.
//
// Draws happen in the same order as the recursive formulation: first draw,
// whole left subtree, right draw, right subtree.
//
// ctx is polled while the tree grows; once it is done Generate returns an
// error wrapping ctx.Err() and no tree.
func Generate(ctx context.Context, p Params, src randomness.Source, limits Limits) (*Node, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	g := generator{ctx: ctx, params: p, src: src, limits: limits}
	return g.run()
}

type generator struct {
	ctx    context.Context
	params Params
	src    randomness.Source
	limits Limits
	stack  []task
	nodes  uint
}

func (g *generator) run() (*Node, error) {
	left := Branch(nil, nil)
	right := Branch(nil, nil)
	root := Branch(left, right)
	g.nodes = 3

	// Pushed in reverse so grandchildren are generated left to right.
	g.pushNode(&right.right, rootDepth)
	g.pushNode(&right.left, rootDepth)
	g.pushNode(&left.right, rootDepth)
	g.pushNode(&left.left, rootDepth)

	for popped := 0; len(g.stack) > 0; popped++ {
		if popped%cancelCheckInterval == 0 {
			if err := g.ctx.Err(); err != nil {
				return nil, fmt.Errorf("generation stopped after %d nodes: %w", g.nodes, err)
			}
		}
		t := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]

		var err error
		switch t.kind {
		case growNode:
			err = g.growNode(t)
		case growRight:
			err = g.growRight(t)
		}
		if err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (g *generator) pushNode(slot **Node, depth uint) {
	g.stack = append(g.stack, task{kind: growNode, slot: slot, depth: depth})
}

func (g *generator) growNode(t task) error {
	if err := g.admit(t.depth); err != nil {
		return err
	}
	if g.limits.Truncate && t.depth >= g.limits.MaxDepth {
		*t.slot = Leaf()
		return nil
	}

	if g.terminates() {
		*t.slot = Leaf()
		return nil
	}

	b := Branch(nil, nil)
	*t.slot = b
	// The right decision waits until the left subtree is finished.
	g.stack = append(g.stack, task{kind: growRight, owner: b, depth: t.depth})
	g.pushNode(&b.left, t.depth+1)
	return nil
}

func (g *generator) growRight(t task) error {
	if randomness.Continue(g.src, g.params.N, g.params.M) {
		g.pushNode(&t.owner.right, t.depth+1)
		return nil
	}
	if err := g.admit(t.depth + 1); err != nil {
		return err
	}
	t.owner.right = Leaf()
	return nil
}

// terminates makes the first draw of a stochastic node: true with
// probability (M-N)/M. The draw is made even when N >= M.
func (g *generator) terminates() bool {
	s := g.src.Uint32N(g.params.M)
	return g.params.N < g.params.M && s < g.params.M-g.params.N
}

// admit accounts for one more node at depth.
func (g *generator) admit(depth uint) error {
	if g.limits.MaxDepth != 0 && depth > g.limits.MaxDepth {
		return fmt.Errorf("%w: generation %d beyond %d", ErrDepthLimit, depth, g.limits.MaxDepth)
	}
	g.nodes++
	if g.limits.MaxNodes != 0 && g.nodes > g.limits.MaxNodes {
		return fmt.Errorf("%w: more than %d nodes", ErrNodeLimit, g.limits.MaxNodes)
	}
	return nil
}
