package seqtree

import (
	"encoding/json"

	"github.com/goliatone/go-seqtree/step"
)

// Trace captures where one input step lives in the reconstructed tree.
type Trace struct {
	// Step is the step's position in the input sequence.
	Step int `json:"step"`
	// Nodes is the root-to-node path, root excluded.
	Nodes []NodeID `json:"nodes"`
	// Configuration is the concatenation of the configurations along Nodes.
	Configuration step.Configuration `json:"configuration"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
