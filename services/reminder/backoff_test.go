package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelayLadder(t *testing.T) {
	assert.Equal(t, 1*time.Minute, RetryDelay(0))
	assert.Equal(t, 1*time.Minute, RetryDelay(1))
	assert.Equal(t, 5*time.Minute, RetryDelay(2))
	assert.Equal(t, 15*time.Minute, RetryDelay(3))
	// Beyond the ladder the last step repeats.
	assert.Equal(t, 15*time.Minute, RetryDelay(7))
}
