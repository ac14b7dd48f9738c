package agent

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/fsm"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/resilience"
)

// Config configures one agent Core.
type Config struct {
	// Tools lists the schemas offered to the model on every turn.
	Tools []contract.ToolSchema
	// ToolConcurrencyLimit bounds how many tool calls from a single
	// model turn run at once (spec §4.G, "in parallel up to a
	// configured limit"). <= 0 means unbounded.
	ToolConcurrencyLimit int
	// MaxTurns caps the number of LLM calls in one run, 0 means
	// unbounded. Guards against a model that never stops requesting
	// tool calls.
	MaxTurns int
	// Retry configures exponential backoff retries of a failed
	// call_llm/execute_tools step before the run aborts. A zero
	// MaxAttempts disables retrying (abort on first failure).
	Retry resilience.RetryConfig
	// Breaker, if non-nil, gates retries across repeated failures within
	// one run: once it trips open the run aborts immediately instead of
	// spending its remaining retry budget on a known-bad provider.
	Breaker *resilience.Breaker
}

// loopState is the FSM state threaded through one agent run: the
// conversation so far, any tool calls the model just requested but
// hasn't had executed yet, and the terminal result once the model
// responds with no further tool calls.
type loopState struct {
	messages     []contract.ChatMessage
	pendingCalls []contract.ToolCall
	turns        int
	finished     bool
	finalMessage string
}

// Core is the tool-loop agent: call the model, and if it requests tool
// calls, dispatch them through the tool registry and loop; otherwise the
// model's message is the final result (spec §4.G steps 1-3).
type Core struct {
	provider   contract.LLMProvider
	dispatcher ToolDispatcher
	cfg        Config
}

// NewCore builds an agent Core.
func NewCore(provider contract.LLMProvider, dispatcher ToolDispatcher, cfg Config) *Core {
	return &Core{provider: provider, dispatcher: dispatcher, cfg: cfg}
}

// Execute implements executable.Executable[[]contract.ChatMessage,
// output.Container], so a Core can be composed with the Fallback wrapper
// (routing-fallback agent, routing.go) or Concurrency (consistency
// sampling, consistency.go) just like any other Executable.
func (c *Core) Execute(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
	callLLM := fsm.StepFunc[loopState]{
		StepName: "call_llm",
		Fn:       c.callLLMStep,
	}
	executeTools := fsm.StepFunc[loopState]{
		StepName: "execute_tools",
		Fn:       c.executeToolsStep,
	}

	firstTrigger := fsm.TriggerFunc[loopState](func(ctx *ectx.ExecutionContext, s loopState) (fsm.Step[loopState], bool, error) {
		return callLLM, true, nil
	})
	nextTrigger := fsm.TriggerFunc[loopState](func(ctx *ectx.ExecutionContext, s loopState) (fsm.Step[loopState], bool, error) {
		if s.finished {
			return nil, false, nil
		}
		if c.cfg.MaxTurns > 0 && s.turns >= c.cfg.MaxTurns {
			return nil, false, nil
		}
		if len(s.pendingCalls) > 0 {
			return executeTools, true, nil
		}
		return callLLM, true, nil
	})

	var errorHandler fsm.ErrorHandler[loopState]
	if c.cfg.Retry.MaxAttempts > 0 {
		errorHandler = fsm.RetryingErrorHandler[loopState](c.cfg.Retry, c.cfg.Breaker, func(s loopState, stepErr error) loopState {
			s.messages = append(s.messages, contract.ChatMessage{
				Role:    "system",
				Content: "a previous step failed and is being retried: " + stepErr.Error(),
			})
			return s
		})
	}
	machine := fsm.NewMachine[loopState](firstTrigger, nextTrigger, errorHandler)
	final, err := machine.Run(ctx, loopState{messages: messages})
	if err != nil {
		return nil, err
	}

	return output.Single{Output: output.Text{Text: final.finalMessage}}, nil
}

func (c *Core) callLLMStep(ctx *ectx.ExecutionContext, s loopState) (loopState, error) {
	resp, err := c.provider.Chat(ctx.GoContext(), s.messages, c.cfg.Tools, nil, nil)
	if err != nil {
		return s, err
	}
	s.turns++
	s.messages = append(s.messages, contract.ChatMessage{
		Role:      "assistant",
		Content:   resp.Message,
		ToolCalls: resp.ToolCalls,
	})

	if len(resp.ToolCalls) == 0 {
		s.finished = true
		s.finalMessage = resp.Message
		s.pendingCalls = nil
	} else {
		s.pendingCalls = resp.ToolCalls
	}
	return s, nil
}

func (c *Core) executeToolsStep(ctx *ectx.ExecutionContext, s loopState) (loopState, error) {
	calls := s.pendingCalls

	inner := executable.Func[contract.ToolCall, output.Output](func(callCtx *ectx.ExecutionContext, call contract.ToolCall) (output.Output, error) {
		return c.dispatcher.Dispatch(callCtx, call)
	})
	conc := executable.NewConcurrency[contract.ToolCall, output.Output](inner, c.cfg.ToolConcurrencyLimit)

	results, err := conc.Execute(ctx, calls)
	if err != nil {
		return s, err
	}

	for i, r := range results {
		content := ""
		if r.Err != nil {
			content = r.Err.Error()
		} else {
			content = output.String(r.Value)
		}
		s.messages = append(s.messages, contract.ChatMessage{
			Role:       "tool",
			ToolCallID: calls[i].ID,
			Content:    content,
		})
	}
	s.pendingCalls = nil
	return s, nil
}
