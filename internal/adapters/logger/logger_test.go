package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger returns a logger writing uncoloured output into a buffer.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("assembled 6 nodes from 2 descriptors")

	goldie.New(t).Assert(t, "info_basic", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("more than one node is named /lidar_front/vlp16_front")

	goldie.New(t).Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "standard error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name:       "stdlib chain",
			err:        fmt.Errorf("failed to plan: %w", errors.New("descriptor missing")),
			goldenName: "error_stdlib_chain",
		},
		{
			name: "cyclic include",
			err: func() error {
				err := zerr.Wrap(zerr.New("cyclic include"), "descriptor includes itself")
				err = zerr.With(err, "path", "/ws/a.yaml")
				return zerr.With(err, "include_chain", "/ws/a.yaml -> /ws/b.yaml -> /ws/a.yaml")
			}(),
			goldenName: "error_cyclic_include",
		},
		{
			name: "multiline cause",
			err: zerr.Wrap(
				errors.New("yaml: line 3: did not find expected node content\nnear nodes"),
				"failed to parse launch descriptor",
			),
			goldenName: "error_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			goldie.New(t).Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(zerr.With(zerr.Wrap(zerr.New("duplicate remapping"), "topic is remapped more than once"),
		"node", "/lidars/point_cloud_fusion"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "topic is remapped more than once: duplicate remapping", record["error"])
	assert.Equal(t, map[string]any{"node": "/lidars/point_cloud_fusion"}, record["metadata"])

	buf.Reset()
	lg.SetJSON(false)
	lg.Info("back to pretty")
	assert.Equal(t, "back to pretty\n", buf.String())
}
