package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	defer Init(false, true)

	var buf bytes.Buffer
	InitTo(&buf, false, true)
	log.Debug("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "FRAMES")

	buf.Reset()
	InitTo(&buf, true, true)
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
