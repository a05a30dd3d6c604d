package emitter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/emitter"
)

func mpcNode() domain.ResolvedNode {
	return domain.ResolvedNode{
		Package:      "mpc_controller_nodes",
		Executable:   "mpc_controller_node_exe",
		Prefix:       "/opt/autoware",
		Namespace:    "/control",
		Name:         "mpc_controller",
		NameExplicit: true,
		Parameters: []domain.ResolvedParameter{
			{Value: domain.PathValue("/tmp/custom.yaml")},
			{Name: "rate", Value: domain.NumberValue("50")},
			{Name: "debug", Value: domain.BoolValue(false)},
			{Name: "gains", Value: domain.ListValue(domain.NumberValue("0.5"), domain.NumberValue("2"))},
		},
		Remappings: []domain.Remapping{{From: "command_topic", To: "/vehicle/vehicle_command"}},
		Args:       []string{"--log-level", "info"},
		Env:        []domain.EnvVar{{Name: "ROS_DOMAIN_ID", Value: "7"}},
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		node domain.ResolvedNode
		want []string
	}{
		{
			name: "full",
			node: mpcNode(),
			want: []string{
				"--log-level", "info",
				"--ros-args",
				"-r", "__node:=mpc_controller",
				"-r", "__ns:=/control",
				"--params-file", "/tmp/custom.yaml",
				"-p", "rate:=50",
				"-p", "debug:=false",
				"-p", "gains:=[0.5, 2]",
				"-r", "command_topic:=/vehicle/vehicle_command",
			},
		},
		{
			name: "defaulted name and root namespace",
			node: domain.ResolvedNode{Package: "rviz2", Executable: "rviz2", Name: "rviz2"},
			want: []string{},
		},
		{
			name: "extra args only",
			node: domain.ResolvedNode{Package: "rviz2", Executable: "rviz2", Name: "rviz2", Args: []string{"-d", "a.rviz"}},
			want: []string{"-d", "a.rviz"},
		},
		{
			name: "string parameters keep their type",
			node: domain.ResolvedNode{Package: "p", Executable: "e", Name: "e", Parameters: []domain.ResolvedParameter{
				{Name: "frame_id", Value: domain.StringValue("true")},
				{Name: "version", Value: domain.StringValue("1.0")},
				{Name: "enabled", Value: domain.BoolValue(true)},
				{Name: "topics", Value: domain.ListValue(domain.StringValue("a, b"))},
				{Name: "map", Value: domain.StringValue("/maps/lot.pcd")},
			}},
			want: []string{
				"--ros-args",
				"-p", `frame_id:="true"`,
				"-p", `version:="1.0"`,
				"-p", "enabled:=true",
				"-p", `topics:=["a, b"]`,
				"-p", "map:=/maps/lot.pcd",
			},
		},
		{
			name: "namespace without explicit name",
			node: domain.ResolvedNode{Package: "p", Executable: "e", Name: "e", Namespace: "/lidar"},
			want: []string{"--ros-args", "-r", "__ns:=/lidar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, emitter.Args(tt.node)); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmit(t *testing.T) {
	topo := &domain.ResolvedTopology{
		Root: "/ws/launch/ms3_vehicle.launch.yaml",
		Nodes: []domain.ResolvedNode{
			mpcNode(),
			{Package: "rviz2", Executable: "rviz2", Prefix: "/opt/ros", Name: "rviz2", Cwd: "/home/ros"},
		},
	}

	plan, err := emitter.Emit(topo, emitter.Options{WorkingDir: "/ws"})
	require.NoError(t, err)

	assert.Equal(t, topo.Root, plan.Root)
	require.Len(t, plan.Processes, 2)

	mpc := plan.Processes[0]
	assert.Equal(t, "/control/mpc_controller", mpc.Name)
	assert.Equal(t, "/opt/autoware/lib/mpc_controller_nodes/mpc_controller_node_exe", mpc.ExecutablePath)
	assert.Equal(t, "/ws", mpc.WorkingDir)
	assert.Equal(t, map[string]string{"ROS_DOMAIN_ID": "7"}, mpc.Env)
	assert.Equal(t, "/control", mpc.Namespace)
	assert.Equal(t, "mpc_controller", mpc.NodeName)

	rviz := plan.Processes[1]
	assert.Equal(t, "/rviz2", rviz.Name)
	assert.Equal(t, "/home/ros", rviz.WorkingDir)
	assert.Nil(t, rviz.Env)

	again, err := emitter.Emit(topo, emitter.Options{WorkingDir: "/ws"})
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
	assert.Len(t, plan.ID, 16)

	other, err := emitter.Emit(topo, emitter.Options{WorkingDir: "/elsewhere"})
	require.NoError(t, err)
	assert.NotEqual(t, plan.ID, other.ID)
}

func TestEmit_Empty(t *testing.T) {
	plan, err := emitter.Emit(&domain.ResolvedTopology{Root: "/a.yaml"}, emitter.Options{})
	require.NoError(t, err)
	assert.Empty(t, plan.Processes)
	assert.NotEmpty(t, plan.ID)
}
