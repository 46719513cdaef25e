// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package shape models the fixture call tree as data: named frames with
// child edges and iteration multipliers. The workload package executes this
// tree with hand-written nested functions so every frame keeps its own
// symbol; this package is the ground truth that captured stack samples are
// checked against. Both read the same constants so they cannot drift apart.
package shape // import "github.com/open-telemetry/stackshape/shape"

import "fmt"

// Iteration constants of the fixture. The loop bounds of every routine are
// monotonic non-decreasing functions of the scale parameter built from these.
const (
	// LeafItersA is the Innermost sub-iteration count per BranchA call.
	LeafItersA = 100
	// LeafItersB is the Innermost sub-iteration count per BranchB call.
	LeafItersB = 150
	// LeafItersHot is the Innermost sub-iteration count of Outer2's hot loop.
	LeafItersHot = 50
	// ExcursionPeriod is the Outer2 loop period of the rare deep excursion.
	ExcursionPeriod = 100
	// ExcursionIters is the BranchA argument of the Outer2 excursion.
	ExcursionIters = 10

	// ChurnBlockInts is the element count of one allocation churn block.
	ChurnBlockInts = 1000
	// ChurnMultiplier scales the driver parameter into churn cycles.
	ChurnMultiplier = 10
	// IODivisor scales the driver parameter down into blocking I/O cycles.
	IODivisor = 20
	// IOPhases is how many times the driver runs the blocking I/O routine.
	IOPhases = 2

	// DefaultIterations is the driver scale used when no parameter is given.
	DefaultIterations = 1000
)

// Frame names as they appear in symbolized stack traces, minus the module
// prefix. Trace checks match on these as symbol suffixes.
const (
	FrameDriver     = "workload.RunDriver"
	FrameOuter1     = "workload.Outer1"
	FrameOuter2     = "workload.Outer2"
	FrameBranchA    = "workload.BranchA"
	FrameBranchB    = "workload.BranchB"
	FrameInnermost  = "workload.Innermost"
	FrameAllocChurn = "workload.AllocChurn"
	FrameBlockingIO = "workload.BlockingIO"
)

// Count is an iteration count derived from a scale parameter: either a fixed
// value or floor(n*num/den), optionally rounded up. Negative parameters
// clamp to zero, keeping every count monotonic non-decreasing in n.
type Count struct {
	scaled bool
	ceil   bool
	num    int
	den    int
	fixed  int
}

// Fixed returns a count independent of the scale parameter.
func Fixed(v int) Count {
	return Count{fixed: v}
}

// Scaled returns the count floor(n*num/den).
func Scaled(num, den int) Count {
	return Count{scaled: true, num: num, den: den}
}

// ScaledCeil returns the count ceil(n*num/den). Used for the Outer2
// excursion, which fires on iteration 0 and every period after.
func ScaledCeil(num, den int) Count {
	return Count{scaled: true, ceil: true, num: num, den: den}
}

// At evaluates the count for scale parameter n.
func (c Count) At(n int) int {
	if !c.scaled {
		return c.fixed
	}
	if n < 0 {
		n = 0
	}
	if c.ceil {
		return (n*c.num + c.den - 1) / c.den
	}
	return n * c.num / c.den
}

// Node is one named frame of the fixture call tree.
type Node struct {
	Name string
	// SelfIters is the busy-loop iteration count inside the frame itself,
	// as a function of the frame's argument.
	SelfIters Count
	Children  []Call
}

// Call is an edge of the tree: the parent invokes Child Times per parent
// invocation, passing Arg as the child's scale argument. Both are functions
// of the parent's own argument.
type Call struct {
	Child *Node
	Times Count
	Arg   Count
}

// Driver returns the root of the fixture call tree. The shape is fixed at
// build time; includeIO selects the off-CPU variant, which appends the
// blocking I/O phases.
func Driver(includeIO bool) *Node {
	innermost := &Node{Name: FrameInnermost, SelfIters: Scaled(1, 1)}
	branchA := &Node{Name: FrameBranchA, Children: []Call{
		{Child: innermost, Times: Scaled(1, 2), Arg: Fixed(LeafItersA)},
	}}
	branchB := &Node{Name: FrameBranchB, SelfIters: Scaled(1, 3), Children: []Call{
		{Child: innermost, Times: Scaled(1, 3), Arg: Fixed(LeafItersB)},
	}}
	outer1 := &Node{Name: FrameOuter1, Children: []Call{
		{Child: branchA, Times: Fixed(1), Arg: Scaled(1, 1)},
		{Child: branchB, Times: Fixed(1), Arg: Scaled(1, 2)},
	}}
	outer2 := &Node{Name: FrameOuter2, Children: []Call{
		{Child: innermost, Times: Scaled(1, 1), Arg: Fixed(LeafItersHot)},
		{Child: branchA, Times: ScaledCeil(1, ExcursionPeriod), Arg: Fixed(ExcursionIters)},
	}}
	churn := &Node{Name: FrameAllocChurn, SelfIters: Scaled(1, 1)}

	root := &Node{Name: FrameDriver, Children: []Call{
		{Child: outer1, Times: Fixed(1), Arg: Scaled(1, 1)},
		{Child: outer2, Times: Fixed(1), Arg: Scaled(1, 1)},
		{Child: churn, Times: Fixed(1), Arg: Scaled(ChurnMultiplier, 1)},
	}}
	if includeIO {
		blockIO := &Node{Name: FrameBlockingIO, SelfIters: Scaled(1, 1)}
		root.Children = append(root.Children, Call{
			Child: blockIO, Times: Fixed(IOPhases), Arg: Scaled(1, IODivisor),
		})
	}
	return root
}

// ExpectedExcursionRatio is the modeled frequency of Outer2's deep excursion
// relative to its direct leaf calls.
func ExpectedExcursionRatio() float64 {
	return 1.0 / ExcursionPeriod
}

// Frames returns the names of all frames reachable from nd, in depth-first
// order, each once.
func (nd *Node) Frames() []string {
	var names []string
	seen := make(map[string]bool)
	nd.walkFrames(seen, &names)
	return names
}

func (nd *Node) walkFrames(seen map[string]bool, names *[]string) {
	if seen[nd.Name] {
		return
	}
	seen[nd.Name] = true
	*names = append(*names, nd.Name)
	for _, c := range nd.Children {
		c.Child.walkFrames(seen, names)
	}
}

// Validate checks the structural invariant of the tree: the shape graph must
// be acyclic so repeated executions produce the same topological stack
// shapes.
func (nd *Node) Validate() error {
	return nd.validate(make(map[*Node]bool))
}

func (nd *Node) validate(onPath map[*Node]bool) error {
	if onPath[nd] {
		return fmt.Errorf("call tree cycle through frame %s", nd.Name)
	}
	onPath[nd] = true
	defer delete(onPath, nd)
	for _, c := range nd.Children {
		if c.Child == nil {
			return fmt.Errorf("frame %s has a nil child", nd.Name)
		}
		if err := c.Child.validate(onPath); err != nil {
			return err
		}
	}
	return nil
}

// SelfTotals interprets the tree for scale parameter n and returns the total
// busy-loop iterations attributed to each frame. This is the model behind
// the "busy-ness scales predictably" property: every total is monotonic
// non-decreasing in n.
func (nd *Node) SelfTotals(n int) map[string]int {
	totals := make(map[string]int)
	nd.accumulate(n, 1, totals)
	return totals
}

func (nd *Node) accumulate(arg, invocations int, totals map[string]int) {
	totals[nd.Name] += invocations * nd.SelfIters.At(arg)
	for _, c := range nd.Children {
		// Zero invocations still recurse so Frames and SelfTotals
		// agree on the key set.
		c.Child.accumulate(c.Arg.At(arg), invocations*c.Times.At(arg), totals)
	}
}
