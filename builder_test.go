package seqtree

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/goliatone/go-seqtree/step"
)

func scenarioSteps() []step.Configuration {
	return []step.Configuration{
		step.Of("fpu", "fpu1", "filter", "r", "p", "0"),
		step.Of("fpu", "fpu1", "filter", "r", "p", "7"),
		step.Of("fpu", "fpu1", "filter", "g", "p", "0"),
	}
}

func TestBuildEmptySequence(t *testing.T) {
	tree := Build(nil)
	if tree.Len() != 1 {
		t.Fatalf("expected root only, got %d nodes", tree.Len())
	}
	if !tree.Configuration(RootID).IsEmpty() {
		t.Fatalf("expected empty root, got %s", tree.Configuration(RootID))
	}
	if got := tree.String(); got != "root\n" {
		t.Fatalf("unexpected render %q", got)
	}
}

func TestBuildSingleStep(t *testing.T) {
	s := step.Of("a", 1, "b", 2)
	tree := Build([]step.Configuration{s})
	children := tree.Children(RootID)
	if len(children) != 1 {
		t.Fatalf("expected one child, got %v", children)
	}
	if !tree.Configuration(children[0]).Equal(s) {
		t.Fatalf("expected child %s, got %s", s, tree.Configuration(children[0]))
	}
}

func TestBuildScenario(t *testing.T) {
	tree := Build(scenarioSteps())
	want := "root\n" +
		"  {fpu:fpu1}\n" +
		"    {filter:r}\n" +
		"      {p:0}\n" +
		"      {p:7}\n" +
		"    {filter:g, p:0}\n"
	if got := tree.String(); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}

	fpu := tree.Children(RootID)[0]
	if tree.Depth(fpu) != 1 || tree.NumChildren(fpu) != 2 {
		t.Fatalf("unexpected fpu node depth=%d children=%d", tree.Depth(fpu), tree.NumChildren(fpu))
	}
	spine := tree.RightmostSpine()
	if len(spine) != 3 || !tree.Configuration(spine[2]).Equal(step.Of("filter", "g", "p", "0")) {
		t.Fatalf("unexpected rightmost spine %v", spine)
	}
}

func TestBuildIsOrderSensitive(t *testing.T) {
	steps := []step.Configuration{
		step.Of("a", 1, "b", 1),
		step.Of("a", 1, "b", 2),
		step.Of("a", 2, "b", 2),
	}
	forward := Build(steps)
	reversed := Build([]step.Configuration{steps[2], steps[1], steps[0]})

	wantForward := "root\n  {a:1}\n    {b:1}\n    {b:2}\n  {a:2, b:2}\n"
	wantReversed := "root\n  {b:2}\n    {a:2}\n    {a:1}\n  {a:1, b:1}\n"
	if got := forward.String(); got != wantForward {
		t.Fatalf("forward:\n%s\nwant:\n%s", got, wantForward)
	}
	if got := reversed.String(); got != wantReversed {
		t.Fatalf("reversed:\n%s\nwant:\n%s", got, wantReversed)
	}
}

func TestBuildContainedStepAttachesRemainder(t *testing.T) {
	b := NewBuilder()
	b.Insert(step.Of("a", 1))
	end := b.Insert(step.Of("a", 1, "b", 2))
	if !b.Tree().Configuration(end).Equal(step.Of("b", 2)) {
		t.Fatalf("expected leaf to hold only the remainder, got %s", b.Tree().Configuration(end))
	}
	if parent, _ := b.Tree().Parent(end); b.Tree().Configuration(parent).String() != "{a:1}" {
		t.Fatalf("expected leaf below {a:1}, got %s", b.Tree().Configuration(parent))
	}
}

func TestBuildRepeatedStepChainsEmptyNodes(t *testing.T) {
	s := step.Of("x", 1)
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		b.Insert(s)
	}
	want := "root\n  {x:1}\n    {}\n      {}\n"
	if got := b.Tree().String(); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}
	if err := b.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBuildReconstructsEveryStep(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	for seed := uint64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		steps := make([]step.Configuration, 40)
		for i := range steps {
			var kv []any
			for _, key := range keys {
				if rng.IntN(3) == 0 {
					continue
				}
				kv = append(kv, key, rng.IntN(3))
			}
			steps[i] = step.Of(kv...)
		}

		b := NewBuilder()
		for i, s := range steps {
			b.Insert(s)
			if err := b.Verify(); err != nil {
				t.Fatalf("seed %d after step %d: %v", seed, i, err)
			}
		}
		checkDisjointPaths(t, b.Tree(), fmt.Sprintf("seed %d", seed))
	}
}

// checkDisjointPaths asserts no key appears twice along any root-to-node path.
func checkDisjointPaths(t *testing.T, tree *Tree, label string) {
	t.Helper()
	tree.Walk(func(id NodeID, _ int) bool {
		seen := map[string]bool{}
		for _, node := range tree.Path(id) {
			for _, key := range tree.Configuration(node).Keys() {
				if seen[key] {
					t.Fatalf("%s: key %q repeated on path to node %d", label, key, id)
				}
				seen[key] = true
			}
		}
		return true
	})
}

func TestBuilderTraces(t *testing.T) {
	b := NewBuilder()
	for _, s := range scenarioSteps() {
		b.Insert(s)
	}
	traces := b.Traces()
	if len(traces) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(traces))
	}
	for i, trace := range traces {
		if trace.Step != i {
			t.Fatalf("trace %d has step %d", i, trace.Step)
		}
		if !trace.Configuration.Equal(scenarioSteps()[i]) {
			t.Fatalf("trace %d reconstructs %s", i, trace.Configuration)
		}
	}
	if got := fmt.Sprint(traces[0].Nodes); got != "[1 4 2]" {
		t.Fatalf("step 0 should move below both splits, got %s", got)
	}
	if got := fmt.Sprint(traces[2].Nodes); got != "[1 5]" {
		t.Fatalf("unexpected path for step 2: %s", got)
	}
	if _, ok := b.Trace(3); ok {
		t.Fatalf("expected no trace past the end")
	}
	if _, ok := b.End(-1); ok {
		t.Fatalf("expected no end for negative index")
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	b := NewBuilder()
	for _, s := range scenarioSteps() {
		b.Insert(s)
	}
	trace, _ := b.Trace(1)
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	want := `{"step":1,"nodes":[1,4,3],"configuration":{"fpu":"fpu1","filter":"r","p":"7"}}`
	if string(payload) != want {
		t.Fatalf("unexpected payload %s", payload)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Step != 1 || len(decoded.Nodes) != 3 || !decoded.Configuration.Equal(trace.Configuration) {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}
}

func TestAttachRejectsSecondParent(t *testing.T) {
	tree := Build(scenarioSteps())
	child := tree.Children(RootID)[0]

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.IsAssertionFailure(err) {
			t.Fatalf("expected assertion failure panic, got %v", r)
		}
	}()
	tree.attach(RootID, child)
}

func TestAttachRejectsRoot(t *testing.T) {
	tree := NewTree()
	other := tree.newNode(step.Of("a", 1))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic attaching the root")
		}
	}()
	tree.attach(other, RootID)
}

func TestTreeAccessorsCopy(t *testing.T) {
	tree := Build(scenarioSteps())
	children := tree.Children(RootID)
	children[0] = 99
	if tree.Children(RootID)[0] == 99 {
		t.Fatalf("Children must return a copy")
	}
	if _, ok := tree.Parent(RootID); ok {
		t.Fatalf("root must not have a parent")
	}
	if len(tree.Path(RootID)) != 0 {
		t.Fatalf("root path must be empty")
	}
}
