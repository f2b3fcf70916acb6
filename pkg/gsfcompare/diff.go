package gsfcompare

import (
	"fmt"
	"strings"
)

// Verdict is the outcome recorded at one diff tree node.
type Verdict int

const (
	// Match means the two values agreed under the active rule.
	Match Verdict = iota
	// Mismatch means they disagreed and the path was not excluded.
	Mismatch
	// Excluded means the path was excluded from the verdict; it is
	// still rendered for diagnostics but can never fail a comparison.
	Excluded
)

// Glyph renders the verdict the way the reference tool does: a
// checkmark for a match, a cross for a mismatch, a circle for
// excluded/informational nodes.
func (v Verdict) Glyph() string {
	switch v {
	case Match:
		return "✅"
	case Mismatch:
		return "❌"
	case Excluded:
		return "◯"
	default:
		return "?"
	}
}

// Node is one entry in a comparison's diff tree: either a leaf
// recording the comparison of two rendered values, or a Group whose
// Verdict is derived from its Children.
type Node struct {
	Path     string
	Verdict  Verdict
	A, B     string
	Reason   string
	Children []*Node
}

// OK reports the node's pass/fail contribution to its parent's
// verdict. Excluded and Match nodes are always OK; a Group is OK iff
// every one of its children is OK.
func (n *Node) OK() bool {
	return n.Verdict != Mismatch
}

func leaf(path string, verdict Verdict, a, b, reason string) *Node {
	return &Node{Path: path, Verdict: verdict, A: a, B: b, Reason: reason}
}

// group builds a Group node whose own verdict is Mismatch iff any
// non-excluded child is a Mismatch (directly or transitively), and
// Match otherwise. Group nodes never carry their own A/B rendering.
func group(path string, children ...*Node) *Node {
	v := Match
	for _, c := range children {
		if c == nil {
			continue
		}
		if !c.OK() {
			v = Mismatch
			break
		}
	}
	return &Node{Path: path, Verdict: v, Children: children}
}

// Render converts the tree to the textual form: one line per node,
// two spaces of indentation per depth, the verdict glyph, the node's
// path and (for leaves) its rendered values or reason.
func (n *Node) Render() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *Node) render(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Verdict.Glyph())
	b.WriteByte(' ')
	b.WriteString(n.Path)
	if len(n.Children) == 0 {
		switch {
		case n.Reason != "":
			fmt.Fprintf(b, ": %s", n.Reason)
		case n.Verdict == Match:
			fmt.Fprintf(b, ": %s", n.A)
		case n.A != "" || n.B != "":
			fmt.Fprintf(b, ": %s != %s", n.A, n.B)
		}
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		if c != nil {
			c.render(b, depth+1)
		}
	}
}

// Walk calls fn for n and every descendant, depth-first pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		if c != nil {
			c.Walk(fn)
		}
	}
}
