package dialog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/convosim/types"
)

func TestTemplateBuilder_Build(t *testing.T) {
	nodes, err := NewTemplateBuilder().
		WithLogger(zaptest.NewLogger(t)).
		Node("greet").Moves("greet").Topics("hello").Part("hello", "hi").Done().
		Node("hello").Text("Hello").Done().
		Node("hi").Text("Hi").Done().
		Build()
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	greet := nodes["greet"]
	assert.True(t, greet.DialogMoves.Has("greet"))
	assert.True(t, greet.AddressedTopics.Has("hello"))
	assert.Equal(t, [][]NodeID{{"hello", "hi"}}, greet.Parts)
	assert.False(t, greet.IsLeaf())
	assert.True(t, nodes["hi"].IsLeaf())
	assert.True(t, greet.Check(nil))
}

func TestTemplateBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *TemplateBuilder
		wantMsg string
	}{
		{
			name:    "no nodes",
			build:   NewTemplateBuilder,
			wantMsg: "no nodes registered",
		},
		{
			name: "unknown part reference",
			build: func() *TemplateBuilder {
				return NewTemplateBuilder().Node("greet").Part("missing").Done()
			},
			wantMsg: "non-existent node: missing",
		},
		{
			name: "empty alternatives",
			build: func() *TemplateBuilder {
				return NewTemplateBuilder().Node("greet").Part().Done()
			},
			wantMsg: "has no alternatives",
		},
		{
			name: "duplicate node",
			build: func() *TemplateBuilder {
				return NewTemplateBuilder().Node("greet").Done().Node("greet").Done()
			},
			wantMsg: "duplicate node: greet",
		},
		{
			name: "cycle",
			build: func() *TemplateBuilder {
				return NewTemplateBuilder().
					Node("a").Part("b").Done().
					Node("b").Part("c").Done().
					Node("c").Part("a").Done()
			},
			wantMsg: "cycle detected",
		},
		{
			name: "self reference",
			build: func() *TemplateBuilder {
				return NewTemplateBuilder().Node("a").Part("a").Done()
			},
			wantMsg: "cycle detected involving node: a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.True(t, errors.Is(err, ErrInvalidTemplate))
			assert.Equal(t, types.ErrInvalidTemplate, types.GetErrorCode(err))
		})
	}
}

func TestTemplateBuilder_SharedChildIsNotACycle(t *testing.T) {
	_, err := NewTemplateBuilder().
		Node("a").Part("shared").Part("b").Done().
		Node("b").Part("shared").Done().
		Node("shared").Text("x").Done().
		Build()
	require.NoError(t, err)
}
