package layering

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-seqtree/step"
)

func TestConcatFlattensPath(t *testing.T) {
	got := Concat(
		step.Empty(),
		step.Of("fpu", "fpu1"),
		step.Of("filter", "r"),
		step.Of("p", "7"),
	)
	want := step.Of("fpu", "fpu1", "filter", "r", "p", "7")
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if !reflect.DeepEqual(got.Keys(), want.Keys()) {
		t.Fatalf("expected path order %v, got %v", want.Keys(), got.Keys())
	}
}

func TestConcatZeroInput(t *testing.T) {
	if got := Concat(); !got.IsEmpty() {
		t.Fatalf("expected empty configuration, got %s", got)
	}
}

func TestOverlayStrongestWins(t *testing.T) {
	defaults := step.Of("readMode", "bright", "exposure", 30, "offsets", map[string]any{"p": 0.0, "q": 0.0})
	stepCfg := step.Of("exposure", 60, "offsets", map[string]any{"q": 5.0}, "filter", "r")

	got := Overlay(stepCfg, defaults)

	if want := []string{"readMode", "exposure", "offsets", "filter"}; !reflect.DeepEqual(got.Keys(), want) {
		t.Fatalf("expected key order %v, got %v", want, got.Keys())
	}
	if v, _ := got.Get("exposure"); v != 60 {
		t.Fatalf("expected stronger exposure, got %v", v)
	}
	offsets, _ := got.Get("offsets")
	want := map[string]any{"p": 0.0, "q": 5.0}
	if !reflect.DeepEqual(offsets, want) {
		t.Fatalf("expected merged offsets %v, got %v", want, offsets)
	}
}

func TestOverlayDoesNotAliasInputs(t *testing.T) {
	nested := map[string]any{"p": 1.0}
	defaults := step.Of("offsets", nested)

	got := Overlay(step.Empty(), defaults)
	offsets, _ := got.Get("offsets")
	offsets.(map[string]any)["p"] = 99.0

	if nested["p"] != 1.0 {
		t.Fatalf("expected input map untouched, got %v", nested["p"])
	}
}

func TestOverlayZeroInput(t *testing.T) {
	if got := Overlay(); !got.IsEmpty() {
		t.Fatalf("expected empty configuration, got %s", got)
	}
}

func TestClone(t *testing.T) {
	type sample struct {
		Tags []string
	}
	in := sample{Tags: []string{"a"}}
	out := Clone(in)
	out.Tags[0] = "b"
	if in.Tags[0] != "a" {
		t.Fatalf("expected clone to detach slices")
	}
}
