package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := []string{Version, CommitHash, BuildDate}
	t.Cleanup(func() { Version, CommitHash, BuildDate = orig[0], orig[1], orig[2] })

	assert.Equal(t, "cowtree dev (commit unknown, built unknown)", String())

	Version, CommitHash, BuildDate = "v1.2.0", "abc123", "2026-01-02T03:04:05Z"
	assert.Equal(t, "cowtree v1.2.0 (commit abc123, built 2026-01-02T03:04:05Z)", String())
}
