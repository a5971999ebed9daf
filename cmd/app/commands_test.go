package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range getCommands("test") {
		names = append(names, cmd.Name)
	}

	assert.Equal(t, []string{"server", "migrate", "worker", "list-failed-events"}, names)
}
