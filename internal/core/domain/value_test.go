package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stagehand/internal/core/domain"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value domain.Value
		want  string
	}{
		{"string", domain.StringValue("vlp16"), "vlp16"},
		{"number", domain.NumberValue("0.5"), "0.5"},
		{"true", domain.BoolValue(true), "true"},
		{"false", domain.BoolValue(false), "false"},
		{"path", domain.PathValue("/opt/x.yaml"), "/opt/x.yaml"},
		{"list", domain.ListValue(domain.NumberValue("1"), domain.StringValue("a")), "[1, a]"},
		{"invalid", domain.Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, domain.ListValue(domain.BoolValue(true)).Equal(domain.ListValue(domain.BoolValue(true))))
	assert.False(t, domain.StringValue("1").Equal(domain.NumberValue("1")))
	assert.False(t, domain.ListValue().Equal(domain.ListValue(domain.StringValue(""))))
}

func TestValue_WithTextKeepsKind(t *testing.T) {
	v := domain.PathValue("${var.x}").WithText("/tmp/x")
	assert.Equal(t, domain.KindPath, v.Kind())
	assert.Equal(t, "/tmp/x", v.Text())
	assert.False(t, domain.Value{}.IsValid())
}
