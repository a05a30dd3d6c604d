package subst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/subst"
	"go.uber.org/mock/gomock"
)

func newEvaluator(t *testing.T, env map[string]string) *subst.Evaluator {
	t.Helper()
	ctrl := gomock.NewController(t)
	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lookup("avp_demo").Return("/", true).AnyTimes()
	index.EXPECT().Lookup("missing_pkg").Return("", false).AnyTimes()
	return subst.New(resolver.New(index), env)
}

func strPtr(s string) *string { return &s }

func newScope(t *testing.T, source string, cli map[string]string, args ...domain.Argument) *domain.ArgumentRegistry {
	t.Helper()
	reg := domain.NewArgumentRegistry(source, cli)
	for _, a := range args {
		require.NoError(t, reg.Declare(a))
	}
	return reg
}

func TestEvaluator_Evaluate(t *testing.T) {
	ev := newEvaluator(t, map[string]string{"HOME": "/home/ros"})
	scope := newScope(t, "/launch/vehicle.launch.yaml", nil,
		domain.Argument{Name: "model", Default: strPtr("vlp16")},
		domain.Argument{Name: "file", Default: strPtr("${var.model}.yaml")},
	)

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  error
	}{
		{name: "literal", template: "/lidars/points_fused", want: "/lidars/points_fused"},
		{name: "argument", template: "--model=${var.model}", want: "--model=vlp16"},
		{name: "argument chain", template: "${var.file}", want: "vlp16.yaml"},
		{
			name:     "package share",
			template: `${pkg_share("avp_demo")}/param/vlp16_front_vehicle.param.yaml`,
			want:     "/share/avp_demo/param/vlp16_front_vehicle.param.yaml",
		},
		{name: "package prefix", template: `${pkg_prefix("avp_demo")}`, want: "/"},
		{name: "share path", template: `${share_path("avp_demo", "urdf/lexus.urdf")}`, want: "/share/avp_demo/urdf/lexus.urdf"},
		{name: "share path escape", template: `${share_path("avp_demo", "../../etc/shadow")}`, wantErr: domain.ErrInvalidPath},
		{name: "missing package", template: `${pkg_share("missing_pkg")}`, wantErr: domain.ErrPackageNotFound},
		{name: "env", template: `${env("HOME")}/maps`, want: "/home/ros/maps"},
		{name: "env fallback", template: `${env("MAP_DIR", "/maps")}`, want: "/maps"},
		{name: "env missing", template: `${env("MAP_DIR")}`, wantErr: domain.ErrUndefinedEnvironment},
		{name: "env two fallbacks", template: `${env("HOME", "/a", "/b")}`, wantErr: domain.ErrInvalidSubstitution},
		{name: "dirname", template: `${dirname()}/param.yaml`, want: "/launch/param.yaml"},
		{name: "undeclared", template: "${var.nope}", wantErr: domain.ErrUnresolvedArgument},
		{name: "unknown root", template: "${local.x}", wantErr: domain.ErrInvalidSubstitution},
		{name: "unknown function", template: "${nope()}", wantErr: domain.ErrInvalidSubstitution},
		{name: "syntax", template: "${", wantErr: domain.ErrInvalidSubstitution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(scope, tt.template)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_DefaultFromPackageShare(t *testing.T) {
	ev := newEvaluator(t, nil)
	scope := newScope(t, "/launch/ms3_vehicle.launch.yaml", nil, domain.Argument{
		Name:    "vlp16_front_param_file",
		Default: strPtr(`${pkg_share("avp_demo")}/param/vlp16_front_vehicle.param.yaml`),
	})

	got, err := ev.Argument(scope, "vlp16_front_param_file")
	require.NoError(t, err)
	assert.Equal(t, "/share/avp_demo/param/vlp16_front_vehicle.param.yaml", got)

	settled, ok := scope.Resolved("vlp16_front_param_file")
	require.True(t, ok)
	assert.Equal(t, got, settled)
}

func TestEvaluator_PassedValueUsesIncludingScope(t *testing.T) {
	ev := newEvaluator(t, nil)
	parent := newScope(t, "/launch/parent.yaml", nil, domain.Argument{Name: "p", Default: strPtr("P")})
	child := newScope(t, "/launch/child.yaml", nil, domain.Argument{Name: "x", Default: strPtr("D")})
	child.Pass("x", "${var.p}/c", parent)

	got, err := ev.Argument(child, "x")
	require.NoError(t, err)
	assert.Equal(t, "P/c", got)
}

func TestEvaluator_CommandLineIsLiteral(t *testing.T) {
	ev := newEvaluator(t, nil)
	scope := newScope(t, "/launch/a.yaml", map[string]string{"x": "${var.y}"},
		domain.Argument{Name: "x", Default: strPtr("d")})

	got, err := ev.Argument(scope, "x")
	require.NoError(t, err)
	assert.Equal(t, "${var.y}", got)
}

func TestEvaluator_ArgumentCycle(t *testing.T) {
	ev := newEvaluator(t, nil)
	scope := newScope(t, "/launch/a.yaml", nil,
		domain.Argument{Name: "a", Default: strPtr("${var.b}")},
		domain.Argument{Name: "b", Default: strPtr("x${var.a}")},
	)

	_, err := ev.Argument(scope, "a")
	require.ErrorIs(t, err, domain.ErrArgumentCycle)
}

func TestEvaluator_EvaluateValue(t *testing.T) {
	ev := newEvaluator(t, nil)
	scope := newScope(t, "/launch/a.yaml", nil, domain.Argument{Name: "rate", Default: strPtr("50")})

	list, err := ev.EvaluateValue(scope, domain.ListValue(
		domain.StringValue("${var.rate}"),
		domain.StringValue("rate ${var.rate}"),
		domain.StringValue("true"),
		domain.NumberValue("1.5"),
		domain.BoolValue(true),
	))
	require.NoError(t, err)
	assert.True(t, list.Equal(domain.ListValue(
		domain.NumberValue("50"),
		domain.StringValue("rate 50"),
		domain.StringValue("true"),
		domain.NumberValue("1.5"),
		domain.BoolValue(true),
	)))

	rel, err := ev.EvaluateValue(scope, domain.PathValue("param/../param/a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/launch/param/a.yaml", rel.Text())
	assert.Equal(t, domain.KindPath, rel.Kind())

	_, err = ev.EvaluateValue(scope, domain.PathValue(""))
	require.ErrorIs(t, err, domain.ErrInvalidPath)

	_, err = ev.EvaluateValue(scope, domain.Value{})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestEvaluator_Condition(t *testing.T) {
	ev := newEvaluator(t, nil)
	scope := newScope(t, "/launch/a.yaml", nil,
		domain.Argument{Name: "on", Default: strPtr("True")},
		domain.Argument{Name: "off", Default: strPtr("0")},
		domain.Argument{Name: "bad", Default: strPtr("maybe")},
	)

	tests := []struct {
		name    string
		cond    domain.Condition
		want    bool
		wantErr error
	}{
		{name: "empty", cond: domain.Condition{}, want: true},
		{name: "if true", cond: domain.Condition{If: "${var.on}"}, want: true},
		{name: "if false", cond: domain.Condition{If: "${var.off}"}, want: false},
		{name: "unless true", cond: domain.Condition{Unless: "${var.on}"}, want: false},
		{name: "unless false", cond: domain.Condition{Unless: "${var.off}"}, want: true},
		{name: "not boolean", cond: domain.Condition{If: "${var.bad}"}, wantErr: domain.ErrInvalidCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Condition(scope, tt.cond)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferences(t *testing.T) {
	refs, err := subst.References(`${var.b}/${pkg_share("p")}/${var.a}/${var.b}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, refs)

	refs, err = subst.References("plain")
	require.NoError(t, err)
	assert.Empty(t, refs)
}
