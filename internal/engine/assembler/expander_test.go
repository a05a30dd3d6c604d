package assembler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/config"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/engine/assembler"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/subst"
	"go.uber.org/mock/gomock"
)

func TestExpander_DeclaresWithoutEvaluating(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), "expand", gomock.Any()).Return(context.Background(), span).Times(2)

	// The index has no expectations: phase one must not look up packages.
	eval := subst.New(resolver.New(mocks.NewMockPackageIndex(ctrl)), nil)
	loader := config.NewLoader(config.NewMapFSAdapter("/ws", ms3Files()), nil)
	x := assembler.NewExpander(loader, eval, tracer, map[string]string{"with_rviz": "false"}, 1)

	root, err := x.Root(context.Background(), "launch/ms3_vehicle.launch.yaml")
	require.NoError(t, err)

	require.Len(t, root.Children, 1)
	child := root.Children[0]
	assert.Equal(t, []string{"/ws/launch/ms3_vehicle.launch.yaml", "/ws/launch/mpc.launch.yaml"}, child.Chain)
	assert.True(t, child.Scope.Knows("mpc_param_file"))

	for frame := range root.All() {
		for _, name := range frame.Scope.Names() {
			_, settled := frame.Scope.Resolved(name)
			assert.False(t, settled, "argument %s of %s was evaluated", name, frame.Descriptor.Source)
		}
	}
}
