package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no flags", nil, ""},
		{"space form", []string{"--config", "a.yaml"}, "a.yaml"},
		{"equals form", []string{"--config=b.yaml"}, "b.yaml"},
		{"single dash", []string{"-config", "c.yaml"}, "c.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := configPath(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPath_EnvFallback(t *testing.T) {
	t.Setenv("CONFIG_PATH", "env.yaml")

	got, err := configPath(nil)
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", got)

	// An explicit flag beats the environment.
	got, err = configPath([]string{"--config=flag.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", got)
}

func TestConfigPath_UnknownFlag(t *testing.T) {
	_, err := configPath([]string{"--port=99"})
	require.Error(t, err)
}
