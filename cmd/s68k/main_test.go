package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUserConfig(t *testing.T) {
	t.Setenv("S68K_CONFIG", "")
	assert.Equal(t, "a.yaml", findUserConfig([]string{"run", "--config=a.yaml"}))
	assert.Equal(t, "b.toml", findUserConfig([]string{"--config", "b.toml", "sim"}))
	assert.Equal(t, "", findUserConfig([]string{"run", "--config"}))

	t.Setenv("S68K_CONFIG", "/etc/s68k/run.json")
	assert.Equal(t, "/etc/s68k/run.json", findUserConfig([]string{"run"}))
}
