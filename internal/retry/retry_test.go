package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialDelay_DoublesThenCaps(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, ExponentialDelay(1, base))
	assert.Equal(t, 200*time.Millisecond, ExponentialDelay(2, base))
	assert.Equal(t, 400*time.Millisecond, ExponentialDelay(3, base))
	assert.Equal(t, 30*time.Second, ExponentialDelay(20, base), "delay must cap at 30s")
}

func TestExponentialDelay_ClampsAttemptBelowOne(t *testing.T) {
	assert.Equal(t, ExponentialDelay(1, time.Second), ExponentialDelay(0, time.Second))
}
