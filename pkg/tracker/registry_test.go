package tracker

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	regTestGoroutines = 10
	regTestIterations = 100
)

func TestStart_CreateOrGet(t *testing.T) {
	tr := New(Config{})

	status, created := tr.Start("a", trackerTestBase)
	assert.True(t, created)
	assert.Equal(t, StateUninitialized, status.State)
	assert.Nil(t, status.PersonDetected)

	// Mutate, then start again: state must survive.
	_, err := tr.Observe("a", true, at(0))
	require.NoError(t, err)

	status, created = tr.Start("a", at(5))
	assert.False(t, created, "starting twice must not reset state")
	assert.Equal(t, StateFocus, status.State)
}

func TestOperations_UnknownSession(t *testing.T) {
	tr := New(Config{})
	now := time.Now()

	_, err := tr.Observe("unknown_id", true, now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Status("unknown_id", now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Score("unknown_id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Latest("unknown_id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Records("unknown_id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Summary("unknown_id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = tr.Stop("unknown_id", now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Snapshot("unknown_id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestList_SortedIDs(t *testing.T) {
	tr := New(Config{})

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		tr.Start(id, trackerTestBase)
	}

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, tr.List())
}

func TestDelete_RemovesState(t *testing.T) {
	tr := New(Config{})

	tr.Start("a", trackerTestBase)
	_, err := tr.Observe("a", true, at(0))
	require.NoError(t, err)

	tr.Delete("a", at(5))

	assert.Empty(t, tr.List())
	_, err = tr.Status("a", at(5))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete_UnknownIsNoop(t *testing.T) {
	tr := New(Config{})
	tr.Delete("never-started", time.Now())
	assert.Empty(t, tr.List())
}

func TestConfig_MinBlocksHighConfidence(t *testing.T) {
	tr := New(Config{MinBlocksHighConfidence: 4})
	tr.Start("a", trackerTestBase)

	// One focus and one leave block: below the configured threshold.
	_, err := tr.Observe("a", true, at(0))
	require.NoError(t, err)
	_, err = tr.Observe("a", false, at(10))
	require.NoError(t, err)
	_, err = tr.Observe("a", true, at(15))
	require.NoError(t, err)

	score, err := tr.Score("a")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceLow, score.Confidence)

	// Two more closed blocks push the count to the threshold.
	_, err = tr.Observe("a", false, at(20))
	require.NoError(t, err)
	_, err = tr.Observe("a", true, at(25))
	require.NoError(t, err)

	score, err = tr.Score("a")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceHigh, score.Confidence)
}

// Concurrent ticks for distinct sessions must proceed independently, and
// concurrent operations on one session must not corrupt its records.
func TestConcurrentSessions(t *testing.T) {
	tr := New(Config{})

	var wg sync.WaitGroup
	for g := 0; g < regTestGoroutines; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", n)
			tr.Start(id, trackerTestBase)
			for i := 0; i < regTestIterations; i++ {
				_, _ = tr.Observe(id, i%2 == 0, at(float64(i)))
				_, _ = tr.Status(id, at(float64(i)))
				_, _ = tr.Score(id)
			}
			_, _, _ = tr.Stop(id, at(regTestIterations))
		}(g)
	}
	wg.Wait()

	assert.Len(t, tr.List(), regTestGoroutines)
	for _, id := range tr.List() {
		records, err := tr.Records(id)
		require.NoError(t, err)
		for i := 1; i < len(records); i++ {
			assert.True(t, records[i].Start.After(records[i-1].Start))
		}
	}
}

func TestConcurrentSameSession(t *testing.T) {
	tr := New(Config{})
	tr.Start("shared", trackerTestBase)

	// Ticks are applied in timestamp order (tickMu), while readers race
	// against them from every goroutine.
	var tickMu sync.Mutex
	var clock int64
	var wg sync.WaitGroup
	for g := 0; g < regTestGoroutines; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < regTestIterations; i++ {
				tickMu.Lock()
				clock++
				_, _ = tr.Observe("shared", (n+i)%2 == 0, at(float64(clock)))
				tickMu.Unlock()
				_, _ = tr.Records("shared")
				_, _ = tr.Summary("shared")
				_, _ = tr.Status("shared", at(float64(n)))
			}
		}(g)
	}
	wg.Wait()

	records, err := tr.Records("shared")
	require.NoError(t, err)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Start.After(records[i-1].Start),
			"records must be strictly increasing in start")
		assert.False(t, records[i].Start.Before(records[i-1].End),
			"records must not overlap")
	}
}

// Concurrent stops of one session: exactly one caller must observe
// finalized true, all must agree on the final stats.
func TestConcurrentStops_ExactlyOneFinalizes(t *testing.T) {
	const stoppers = 16

	for trial := 0; trial < regTestIterations; trial++ {
		tr := New(Config{})
		id := fmt.Sprintf("sess-%d", trial)
		tr.Start(id, trackerTestBase)
		_, err := tr.Observe(id, true, at(0))
		require.NoError(t, err)
		_, err = tr.Observe(id, false, at(10))
		require.NoError(t, err)

		var wg sync.WaitGroup
		finals := make([]Summary, stoppers)
		finalized := make([]bool, stoppers)
		errs := make([]error, stoppers)
		for g := 0; g < stoppers; g++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				finals[n], finalized[n], errs[n] = tr.Stop(id, at(12))
			}(g)
		}
		wg.Wait()

		count := 0
		for g := 0; g < stoppers; g++ {
			require.NoError(t, errs[g])
			if finalized[g] {
				count++
			}
			assert.Equal(t, finals[0], finals[g], "all stops must agree on final stats")
		}
		require.Equal(t, 1, count, "exactly one stop must finalize")
	}
}
