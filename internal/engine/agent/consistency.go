package agent

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// EqualFunc decides whether two agent samples agree, for majority voting.
type EqualFunc func(a, b output.Container) bool

// DefaultEqual compares samples by their extracted evaluation-target
// text (spec §4.B TryIntoEvaluationTarget), which is good enough for
// free-text agent replies without needing a semantic judge.
func DefaultEqual(a, b output.Container) bool {
	ta, errA := output.TryIntoEvaluationTarget(a)
	tb, errB := output.TryIntoEvaluationTarget(b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.Text == tb.Text
}

// ConsistencySampler runs an inner agent Executable N times concurrently
// and picks the majority answer via a windowed pairwise comparison,
// wrapping the chosen sample in output.Consistency{Value, N} (spec §4.G
// consistency sampling).
type ConsistencySampler struct {
	inner  executable.Executable[[]contract.ChatMessage, output.Container]
	n      int
	window int
	equal  EqualFunc
}

// NewConsistencySampler builds a ConsistencySampler. window bounds how
// many neighbors each sample is compared against (rather than full
// O(n^2) pairwise comparison) — a Go-idiom cost bound for large n; <= 0
// means compare against every other sample. A nil equal defaults to
// DefaultEqual.
func NewConsistencySampler(
	inner executable.Executable[[]contract.ChatMessage, output.Container],
	n int,
	window int,
	equal EqualFunc,
) *ConsistencySampler {
	if equal == nil {
		equal = DefaultEqual
	}
	return &ConsistencySampler{inner: inner, n: n, window: window, equal: equal}
}

// Execute runs the inner agent n times and returns the majority answer.
func (s *ConsistencySampler) Execute(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
	n := s.n
	if n <= 0 {
		n = 1
	}
	samples := make([][]contract.ChatMessage, n)
	for i := range samples {
		samples[i] = messages
	}

	conc := executable.NewConcurrency[[]contract.ChatMessage, output.Container](s.inner, n)
	results, err := conc.Execute(ctx, samples)
	if err != nil {
		return nil, err
	}

	successful := make([]output.Container, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			successful = append(successful, r.Value)
		}
	}
	if len(successful) == 0 {
		return nil, enginerr.New(enginerr.AgentError, "all consistency samples failed")
	}

	best := pickMajority(successful, s.equal, s.window)
	return output.Consistency{Value: best, N: len(successful)}, nil
}

// pickMajority scores each sample by how many of its windowed neighbors
// it agrees with, and returns the highest-scoring one. Ties resolve to
// the earliest sample (stable, deterministic).
func pickMajority(samples []output.Container, equal EqualFunc, window int) output.Container {
	bestIdx, bestScore := 0, -1
	for i := range samples {
		lo, hi := 0, len(samples)-1
		if window > 0 {
			if lo = i - window; lo < 0 {
				lo = 0
			}
			if hi = i + window; hi >= len(samples) {
				hi = len(samples) - 1
			}
		}

		score := 0
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			if equal(samples[i], samples[j]) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return samples[bestIdx]
}
