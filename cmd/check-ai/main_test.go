package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWithoutAPIKeyFails(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIGACHAT_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")

	assert.Equal(t, 1, run())
}
