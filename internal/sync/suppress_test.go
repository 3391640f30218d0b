package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuppressionConsumeOnce(t *testing.T) {
	set := newSuppressionSet(time.Minute)

	set.Reserve("doc-1")
	assert.True(t, set.Consume("doc-1"))
	assert.False(t, set.Consume("doc-1"), "a reservation covers exactly one echo")
}

func TestSuppressionUnknownID(t *testing.T) {
	set := newSuppressionSet(time.Minute)
	assert.False(t, set.Consume("never-reserved"))
}

func TestSuppressionExpires(t *testing.T) {
	set := newSuppressionSet(10 * time.Millisecond)

	set.Reserve("doc-2")
	assert.Eventually(t, func() bool {
		return !set.Consume("doc-2")
	}, time.Second, 5*time.Millisecond, "reservation should expire when no echo arrives")
}

func TestSuppressionRelease(t *testing.T) {
	set := newSuppressionSet(time.Minute)

	set.Reserve("doc-3")
	set.Release("doc-3")
	assert.False(t, set.Consume("doc-3"))
}
