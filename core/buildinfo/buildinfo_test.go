package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	prevV, prevC, prevD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = prevV, prevC, prevD })

	Version, Commit, Date = "v1.0.0", "abc123", ""
	assert.Equal(t, "v1.0.0 (abc123)", String())

	Date = "2025-01-01T00:00:00Z"
	assert.Equal(t, "v1.0.0 (abc123, 2025-01-01T00:00:00Z)", String())
}
