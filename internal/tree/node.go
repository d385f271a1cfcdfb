// Package tree implements the binary branching process: tree generation,
// structural measurement and the per-generation encoding.
//
// All traversals use explicit stacks or queues, so tree depth is bounded by
// heap rather than goroutine stack.
package tree

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when process parameters cannot form a probability.
var ErrInvalidParams = errors.New("invalid process parameters")

// riskThreshold is the branch probability above which generation is
// likely to run away.
const riskThreshold = 0.6

// Node is a tree node: a leaf when both children are nil, otherwise a
// branch owning exactly two children.
type Node struct {
	left, right *Node
}

// Leaf returns a new terminal node.
func Leaf() *Node {
	return &Node{}
}

// Branch returns a new internal node owning left and right.
// Both children must be non-nil.
func Branch(left, right *Node) *Node {
	return &Node{left: left, right: right}
}

// IsLeaf reports whether n is a terminal node.
func (n *Node) IsLeaf() bool {
	return n.left == nil
}

// Left returns the left child, or nil for a leaf.
func (n *Node) Left() *Node { return n.left }

// Right returns the right child, or nil for a leaf.
func (n *Node) Right() *Node { return n.right }

// Params are the branching process parameters; the branch probability is N/M.
type Params struct {
	N uint32 `json:"n" koanf:"n"`
	M uint32 `json:"m" koanf:"m"`
}

// Validate rejects parameters that would divide by zero.
// N > M is accepted and means certain continuation.
func (p Params) Validate() error {
	if p.M == 0 {
		return fmt.Errorf("%w: m must be greater than 0", ErrInvalidParams)
	}
	return nil
}

// Probability returns N/M, or 0 when M is 0.
func (p Params) Probability() float64 {
	if p.M == 0 {
		return 0
	}
	return float64(p.N) / float64(p.M)
}

// HighRisk reports whether the branch probability is high enough that a
// tree may never finish generating. It is advisory only.
func (p Params) HighRisk() bool {
	return p.Probability() > riskThreshold
}

// String formats the parameters as "N/M".
func (p Params) String() string {
	return fmt.Sprintf("%d/%d", p.N, p.M)
}
