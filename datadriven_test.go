package seqtree

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/goliatone/go-seqtree/step"
	"github.com/stretchr/testify/require"
)

// TestReconstructDataDriven runs the scenarios in testdata/reconstruct. Each
// directive's input holds one JSON step object per line.
//
//	build     renders the uncompressed tree
//	compress  renders the compressed tree
//	traces    lists every step's node path and reconstructed configuration
//	json      encodes the compressed tree
func TestReconstructDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/reconstruct", func(t *testing.T, d *datadriven.TestData) string {
		steps := parseStepLines(t, d.Input)
		b := NewBuilder()
		for _, s := range steps {
			b.Insert(s)
		}
		require.NoError(t, b.Verify())

		switch d.Cmd {
		case "build":
			return b.Tree().String()
		case "compress":
			compressed := Compress(b.Tree())
			require.True(t, compressed.Equal(compressed.Recompress()), "compression must be idempotent")
			return compressed.String()
		case "traces":
			var out strings.Builder
			for _, trace := range b.Traces() {
				fmt.Fprintf(&out, "step %d: %v %s\n", trace.Step, trace.Nodes, trace.Configuration)
			}
			return out.String()
		case "json":
			payload, err := json.Marshal(Compress(b.Tree()))
			require.NoError(t, err)
			return string(payload)
		default:
			d.Fatalf(t, "unknown command %q", d.Cmd)
			return ""
		}
	})
}

func parseStepLines(t *testing.T, input string) []step.Configuration {
	t.Helper()
	var lines []string
	for _, line := range strings.Split(input, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	steps, err := step.ParseSequence([]byte("[" + strings.Join(lines, ",") + "]"))
	require.NoError(t, err)
	return steps
}
