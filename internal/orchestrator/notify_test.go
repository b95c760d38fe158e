package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotifyAfterFiresOnTimeout(t *testing.T) {
	done := make(chan struct{})
	var fired atomic.Int64

	finished := make(chan struct{})
	go func() {
		notifyAfter(done, 10*time.Millisecond, func() { fired.Add(1) })
		close(finished)
	}()

	<-finished
	assert.Equal(t, int64(1), fired.Load())
}

func TestNotifyAfterSkipsWhenDoneFirst(t *testing.T) {
	done := make(chan struct{})
	var fired atomic.Int64

	finished := make(chan struct{})
	go func() {
		notifyAfter(done, 100*time.Millisecond, func() { fired.Add(1) })
		close(finished)
	}()

	close(done)
	<-finished
	assert.Zero(t, fired.Load())
}
