package ectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

func TestBuilderRequiresWriter(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err, "expected error when writer is missing")
}

func TestBuilderBuildsRootContext(t *testing.T) {
	sender := event.NewSender(10)
	ctx, err := NewBuilder().
		WithWriter(sender).
		WithGlobalContext(map[string]any{"project": "oxy"}).
		Build()
	require.NoError(t, err)
	assert.True(t, ctx.Source.IsRoot(), "expected a root source")
	v, ok := ctx.Render.Get("project")
	require.True(t, ok)
	assert.Equal(t, "oxy", v)
}

func TestChildDerivesSourceKeepsWriter(t *testing.T) {
	sender := event.NewSender(10)
	root, err := NewBuilder().WithWriter(sender).Build()
	require.NoError(t, err)

	child := root.Child("task")
	require.NotNil(t, child.Source.ParentID, "expected child source parented to root")
	assert.Equal(t, root.Source.ID, *child.Source.ParentID)
	assert.Equal(t, root.Writer, child.Writer, "expected child to share the parent's writer by default")
}

func TestWithRenderValueDoesNotMutateParent(t *testing.T) {
	sender := event.NewSender(10)
	root, err := NewBuilder().WithWriter(sender).WithGlobalContext(map[string]any{"a": 1}).Build()
	require.NoError(t, err)

	child := root.WithRenderValue(map[string]any{"a": 2})
	v, _ := child.Render.Get("a")
	assert.Equal(t, 2, v, "expected child overlay value 2")
	v, _ = root.Render.Get("a")
	assert.Equal(t, 1, v, "expected parent untouched")
}
