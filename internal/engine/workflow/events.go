package workflow

import "github.com/r3e-network/oxy-engine/internal/engine/event"

// makeMessage builds a Message event kind from a plain string, used to
// surface a script's captured console.log lines as part of the task's
// event stream.
func makeMessage(text string) event.Message {
	return event.Message{Message: text}
}
