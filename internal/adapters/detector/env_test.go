package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/core/domain"
)

func env(ci string) func(string) string {
	return func(key string) string {
		if key == "CI" {
			return ci
		}
		return ""
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		isTTY bool
		ci    string
		want  detector.OutputMode
	}{
		{name: "terminal", isTTY: true, want: detector.ModeStyled},
		{name: "terminal with CI=true", isTTY: true, ci: "true", want: detector.ModePlain},
		{name: "terminal with CI=1", isTTY: true, ci: "1", want: detector.ModePlain},
		{name: "terminal with CI=false", isTTY: true, ci: "false", want: detector.ModeStyled},
		{name: "pipe", isTTY: false, want: detector.ModePlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detector.Detect(tt.isTTY, env(tt.ci)))
		})
	}
}

func TestResolveMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		auto detector.OutputMode
		flag string
		want detector.OutputMode
	}{
		{auto: detector.ModeStyled, flag: "", want: detector.ModeStyled},
		{auto: detector.ModePlain, flag: "auto", want: detector.ModePlain},
		{auto: detector.ModeStyled, flag: "text", want: detector.ModeStyled},
		{auto: detector.ModePlain, flag: "text", want: detector.ModePlain},
		{auto: detector.ModeStyled, flag: "json", want: detector.ModeJSON},
	}

	for _, tt := range tests {
		got, err := detector.ResolveMode(tt.auto, tt.flag)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s with %q", tt.auto, tt.flag)
	}

	_, err := detector.ResolveMode(detector.ModePlain, "tui")
	require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
}

func TestOutputMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "auto", detector.ModeAuto.String())
	assert.Equal(t, "styled", detector.ModeStyled.String())
	assert.Equal(t, "text", detector.ModePlain.String())
	assert.Equal(t, "json", detector.ModeJSON.String())
}
