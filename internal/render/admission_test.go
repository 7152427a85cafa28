package render

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdmissionCapNeverExceeded(t *testing.T) {
	const capSlots = 5
	const jobs = 10

	adm := NewAdmission(capSlots)
	ctx := context.Background()

	var inFlight atomic.Int64
	var peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, adm.Acquire(ctx))
			defer adm.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int64(capSlots))
	require.Equal(t, int64(capSlots), peak.Load(), "all slots should be used under load")

	st := adm.Status()
	require.Equal(t, int64(0), st.Running)
	require.Equal(t, int64(0), st.Queued)
	require.Equal(t, int64(capSlots), st.Cap)
}

func TestAdmissionStatusWhileQueued(t *testing.T) {
	adm := NewAdmission(1)
	ctx := context.Background()

	require.NoError(t, adm.Acquire(ctx))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		if err := adm.Acquire(ctx); err == nil {
			adm.Release()
		}
		close(done)
	}()

	<-started
	require.Eventually(t, func() bool {
		st := adm.Status()
		return st.Running == 1 && st.Queued == 1
	}, time.Second, 5*time.Millisecond)

	adm.Release()
	<-done

	st := adm.Status()
	require.Equal(t, int64(0), st.Running)
	require.Equal(t, int64(0), st.Queued)
}

func TestAdmissionAcquireHonorsCancel(t *testing.T) {
	adm := NewAdmission(1)
	require.NoError(t, adm.Acquire(context.Background()))
	defer adm.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := adm.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	st := adm.Status()
	require.Equal(t, int64(1), st.Running)
	require.Equal(t, int64(0), st.Queued)
}

func TestAdmissionMinimumCap(t *testing.T) {
	adm := NewAdmission(0)
	require.Equal(t, int64(1), adm.Status().Cap)
}
