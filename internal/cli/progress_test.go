package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, "Inspecting transactions...")

	p.Step()
	p.Step()
	p.Finish()

	assert.Contains(t, buf.String(), "Inspecting transactions...")
	assert.Contains(t, buf.String(), "2/2")
}
