package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["serve"], "should have serve command")
	assert.True(t, names["analyze"], "should have analyze command")
	assert.True(t, names["version"], "should have version command")
}

func TestRootCmd_SilencesCobraNoise(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}
