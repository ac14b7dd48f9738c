package event

import "github.com/r3e-network/oxy-engine/internal/engine/output"

// Kind is the closed tagged union of event payloads (spec §3).
type Kind interface {
	isKind()
	// Name returns a stable discriminant used for logging/serialization.
	Name() string
}

type Started struct{ Name string }

func (Started) isKind()        {}
func (Started) Name() string   { return "started" }

type Finished struct{ Message string }

func (Finished) isKind()      {}
func (Finished) Name() string { return "finished" }

// Chunk is incremental output with a stable key for merging partial
// updates (e.g. streamed LLM tokens) into a running accumulator.
type Chunk struct {
	Key      *string
	Delta    output.Output
	Finished bool
}

type Updated struct{ Chunk Chunk }

func (Updated) isKind()      {}
func (Updated) Name() string { return "updated" }

type Message struct{ Message string }

func (Message) isKind()      {}
func (Message) Name() string { return "message" }

// ProgressType discriminates progress-bar shapes.
type ProgressType struct {
	Label   string
	Current int
	Total   int
}

type Progress struct{ Progress ProgressType }

func (Progress) isKind()      {}
func (Progress) Name() string { return "progress" }

type SetMetadata struct{ Attrs map[string]string }

func (SetMetadata) isKind()      {}
func (SetMetadata) Name() string { return "set_metadata" }

type SQLQueryGenerated struct {
	Query      string
	Database   string
	Source     string
	IsVerified bool
}

func (SQLQueryGenerated) isKind()      {}
func (SQLQueryGenerated) Name() string { return "sql_query_generated" }

type ArtifactStarted struct{ Name string }

func (ArtifactStarted) isKind()      {}
func (ArtifactStarted) Name() string { return "artifact_started" }

type ArtifactDone struct{ Name string }

func (ArtifactDone) isKind()      {}
func (ArtifactDone) Name() string { return "artifact_done" }

type ArtifactValue struct {
	Name  string
	Value output.Output
}

func (ArtifactValue) isKind()      {}
func (ArtifactValue) Name() string { return "artifact_value" }

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

func (Usage) isKind()      {}
func (Usage) Name() string { return "usage" }

type StepStarted struct{ Step string }

func (StepStarted) isKind()      {}
func (StepStarted) Name() string { return "step_started" }

type StepFinished struct {
	Step  string
	Error string
}

func (StepFinished) isKind()      {}
func (StepFinished) Name() string { return "step_finished" }

// Event is a single typed occurrence tagged with the source scope that
// produced it.
type Event struct {
	Source Source
	Kind   Kind
}

// New builds an Event for the given source and kind.
func New(source Source, kind Kind) Event {
	return Event{Source: source, Kind: kind}
}
