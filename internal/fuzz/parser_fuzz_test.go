package fuzztests

import (
	"testing"
	"time"

	"formula/internal/frontend"
	"formula/internal/testkit"
	"formula/internal/types"
)

// parseTimeout is the maximum time allowed for analysing a single input.
// If it takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzFrontendSpans(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		res := frontend.Analyze(string(input), frontend.Options{Stage: frontend.StageAll})
		if res.Ok() && res.Reached == frontend.StageTypecheck && res.Type == types.Invalid {
			t.Fatalf("%q: clean typecheck without a result type", input)
		}
		if res.Root.IsValid() {
			if err := testkit.CheckSpanInvariants(res.Builder, res.Root, res.File); err != nil {
				t.Fatalf("%q: %v", input, err)
			}
		}
	})
}

// FuzzFrontendNoHang checks that analysis terminates on any input.
func FuzzFrontendNoHang(f *testing.F) {
	addCorpusSeeds(f)

	f.Add([]byte("((((((((((((((((1"))
	f.Add([]byte("a ? b ? c ? d : e"))
	f.Add([]byte("max(,,,)"))
	f.Add([]byte("self.levels..Attack"))
	f.Add([]byte("- - - - - - 1"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		done := make(chan struct{})
		go func() {
			defer close(done)
			frontend.Analyze(string(input), frontend.Options{})
		}()

		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("hang detected: analysis took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
