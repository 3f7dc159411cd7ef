package drift

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrEmptyScript is returned by LoadTestScript for a script with no steps.
var ErrEmptyScript = errors.New("script has no steps")

// testStep represents a single action in a test script. Coordinates are
// normalised viewport units, Y up.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"wake": true, "poof": true, "toggle": true,
	"move": true, "sweep": true, "leave": true,
	"wait": true, "screenshot": true,
}

// TestRunner sequences pointer input, toggles, and screenshots across
// frames for reproducible captures. Attach to an App via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: %w", ErrEmptyScript)
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// LoadTestScriptFile reads and parses a test script from disk.
func LoadTestScriptFile(path string) (*TestRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test script: %w", err)
	}
	return LoadTestScript(data)
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame. Called from App.Step.
func (r *TestRunner) step(a *App) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if a.Pointer.PendingInjected() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		a.Scene.Screenshot(st.Label)
	case "wake":
		a.System.Wake()
	case "poof":
		a.System.Poof()
	case "toggle":
		a.Toggle()
	case "move":
		a.Pointer.InjectMove(st.X, st.Y)
	case "leave":
		a.Pointer.InjectLeave()
	case "sweep":
		a.Pointer.InjectSweep(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && a.Pointer.PendingInjected() == 0 {
		r.done = true
	}
}
