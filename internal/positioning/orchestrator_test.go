package positioning

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/strip"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	o, err := NewOrchestrator(Config{
		Name:    "test",
		Layout:  exampleLayout(t),
		Palette: strip.DefaultPalette(),
		Logger:  logging.NewLogger(&buf, false, true),
	})
	require.NoError(t, err)
	return o, &buf
}

func exampleReferences() *References {
	return &References{
		Stops: []StopRef{{ID: "stop-a", Name: "A"}, {ID: "stop-b", Name: "B"}},
		Trips: []TripRef{
			{ID: "T1", DirectionID: "1"},
			{ID: "T2", DirectionID: "0"},
			{ID: "T3", DirectionID: "1"},
		},
	}
}

func TestNewOrchestrator_RequiresLayout(t *testing.T) {
	_, err := NewOrchestrator(Config{})
	assert.Error(t, err)

	_, err = NewOrchestrator(Config{Layout: &strip.Layout{Length: 4}})
	assert.ErrorIs(t, err, strip.ErrInvalidLayout)
}

func TestOrchestrator_InitialFrameIsOff(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	frame := o.Frame()

	require.Equal(t, 6, frame.Len())
	for _, c := range frame.Pixels {
		assert.Equal(t, strip.Off, c)
	}
	_, committed := o.LastCommitted()
	assert.False(t, committed)
	assert.Equal(t, Idle, o.State())
}

func TestOrchestrator_ExampleScenario(t *testing.T) {
	o, logs := newTestOrchestrator(t)
	palette := strip.DefaultPalette()

	// 1. At stop B northbound.
	res := o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-b"}},
	})
	require.Equal(t, Committed, res.Outcome)
	assert.Equal(t, palette.StoppedNorth, res.Frame.Pixels[3])
	assert.Equal(t, []string{"T1"}, res.Frame.Trips[3])
	assert.Equal(t, FurthestTable{"T1": 3}, o.Furthest())

	// 2. Feed now says 40s out of a 100s segment: candidate 2, held at 3.
	res = o.Process(Snapshot{
		Timestamp:  2,
		References: exampleReferences(),
		Vehicles: []VehicleStatus{{
			TripID: "T1", NextStopID: "stop-b", NextStopOffset: 40, Schedule: exampleSchedule,
		}},
	})
	require.Equal(t, Committed, res.Outcome)
	assert.Equal(t, palette.MovingNorth, res.Frame.Pixels[3])
	assert.Equal(t, strip.Off, res.Frame.Pixels[2])
	assert.Equal(t, FurthestTable{"T1": 3}, o.Furthest())

	// 3. Two vehicles on pixel 2 in opposite directions.
	res = o.Process(Snapshot{
		Timestamp:  3,
		References: exampleReferences(),
		Vehicles: []VehicleStatus{
			{TripID: "T3", NextStopID: "stop-b", NextStopOffset: 40, Schedule: exampleSchedule},
			{TripID: "T2", NextStopID: "stop-b"},
		},
	})
	require.Equal(t, Committed, res.Outcome)
	assert.Equal(t, palette.Collision, res.Frame.Pixels[2])
	assert.ElementsMatch(t, []string{"T2", "T3"}, res.Frame.Trips[2])
	assert.Equal(t, 1, res.Collisions)
	assert.Equal(t, FurthestTable{"T2": 2, "T3": 2}, o.Furthest(), "T1 dropped out of the feed")

	// 4. Unknown next stop: skipped with a warning, cycle still commits.
	logs.Reset()
	res = o.Process(Snapshot{
		Timestamp:  4,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T3", NextStopID: "stop-404"}},
	})
	require.Equal(t, Committed, res.Outcome)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipUnresolvedStop, res.Skipped[0].Reason)
	for _, c := range res.Frame.Pixels {
		assert.Equal(t, strip.Off, c)
	}
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "stop-404")
	assert.Empty(t, o.Furthest())
}

func TestOrchestrator_DuplicateTimestampIsNoop(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	first := o.Process(Snapshot{
		Timestamp:  100,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-b"}},
	})
	require.Equal(t, Committed, first.Outcome)
	frame := o.Frame()
	furthest := o.Furthest()

	// Same timestamp, different content: must not be looked at.
	second := o.Process(Snapshot{
		Timestamp:  100,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T2", NextStopID: "stop-a"}},
	})
	assert.Equal(t, Duplicate, second.Outcome)
	assert.Equal(t, frame, o.Frame())
	assert.Equal(t, furthest, o.Furthest())
	assert.Equal(t, frame, second.Frame)
}

func TestOrchestrator_FirstSnapshotWithZeroTimestampIsProcessed(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	res := o.Process(Snapshot{References: exampleReferences()})
	assert.Equal(t, Committed, res.Outcome)
}

func TestOrchestrator_MalformedSnapshotKeepsState(t *testing.T) {
	o, logs := newTestOrchestrator(t)

	require.Equal(t, Committed, o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-b"}},
	}).Outcome)
	frame := o.Frame()
	furthest := o.Furthest()

	malformed := []Snapshot{
		{Timestamp: 2},
		{Timestamp: 3, References: &References{Trips: []TripRef{}}},
		{Timestamp: 4, References: &References{Stops: []StopRef{}}},
		{Timestamp: 5, References: &References{Stops: []StopRef{{ID: "x"}}, Trips: []TripRef{}}},
	}
	for _, snap := range malformed {
		logs.Reset()
		res := o.Process(snap)
		assert.Equal(t, Aborted, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrMalformedSnapshot)
		assert.Equal(t, frame, o.Frame())
		assert.Equal(t, frame, res.Frame)
		assert.Equal(t, furthest, o.Furthest())
		assert.Contains(t, logs.String(), "level=ERROR")
	}

	ts, committed := o.LastCommitted()
	assert.True(t, committed)
	assert.Equal(t, int64(1), ts, "aborted cycles do not count as processed")
	assert.Equal(t, Idle, o.State())
}

func TestOrchestrator_AbortedTimestampCanBeRetried(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	assert.Equal(t, Aborted, o.Process(Snapshot{Timestamp: 7}).Outcome)
	assert.Equal(t, Committed, o.Process(Snapshot{Timestamp: 7, References: exampleReferences()}).Outcome)
}

func TestOrchestrator_SyntheticDuplicatesAreDropped(t *testing.T) {
	o, logs := newTestOrchestrator(t)
	logs.Reset()

	res := o.Process(Snapshot{
		Timestamp: 1,
		References: &References{
			Stops: []StopRef{{ID: "stop-b", Name: "B"}},
			Trips: []TripRef{{ID: "T1", DirectionID: "1"}, {ID: "T1_DUP", DirectionID: "0"}},
		},
		Vehicles: []VehicleStatus{
			{TripID: "T1", NextStopID: "stop-b"},
			{TripID: "T1_DUP", NextStopID: "stop-b"},
		},
	})

	assert.Equal(t, 1, res.Rendered)
	assert.Equal(t, 1, res.Duplicates)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 0, res.Collisions)
	assert.Equal(t, strip.DefaultPalette().StoppedNorth, res.Frame.Pixels[3])
	assert.NotContains(t, logs.String(), "T1_DUP")
}

func TestOrchestrator_CustomDuplicateMarkers(t *testing.T) {
	o, err := NewOrchestrator(Config{
		Layout:           exampleLayout(t),
		Palette:          strip.DefaultPalette(),
		DuplicateMarkers: []string{"shadow"},
	})
	require.NoError(t, err)

	assert.True(t, o.isSyntheticDuplicate("40_SHADOW_1"))
	assert.False(t, o.isSyntheticDuplicate("40_1_dup"))
}

func TestOrchestrator_CorrectionOverridesHistory(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-b"}},
	})
	require.Equal(t, FurthestTable{"T1": 3}, o.Furthest())

	res := o.Process(Snapshot{
		Timestamp:  2,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-a"}},
	})
	assert.Equal(t, FurthestTable{"T1": 0}, o.Furthest())
	assert.Equal(t, strip.DefaultPalette().StoppedNorth, res.Frame.Pixels[0])
	assert.Equal(t, strip.Off, res.Frame.Pixels[3])
}

func TestOrchestrator_HeldPixelIsNotStopped(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	palette := strip.DefaultPalette()

	// Two pixels short of B northbound.
	o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles: []VehicleStatus{{
			TripID: "T1", NextStopID: "stop-b", NextStopOffset: 60, Schedule: exampleSchedule,
		}},
	})
	require.Equal(t, FurthestTable{"T1": 1}, o.Furthest())

	// Feed claims the train is at A (pixel 0). That is inside the noise
	// band, so it stays on pixel 1, which is not a station.
	res := o.Process(Snapshot{
		Timestamp:  2,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-a"}},
	})
	assert.Equal(t, palette.MovingNorth, res.Frame.Pixels[1])
	assert.Equal(t, strip.Off, res.Frame.Pixels[0])
	assert.Equal(t, FurthestTable{"T1": 1}, o.Furthest())
}

func TestOrchestrator_SouthboundCorrectionAtStop(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	palette := strip.DefaultPalette()

	o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T2", NextStopID: "stop-b"}},
	})

	// Southbound B is pixel 2 and A is pixel 5, three apart.
	res := o.Process(Snapshot{
		Timestamp:  2,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T2", NextStopID: "stop-a"}},
	})
	assert.Equal(t, palette.StoppedSouth, res.Frame.Pixels[5])
	assert.Equal(t, strip.Off, res.Frame.Pixels[2])
}

func TestOrchestrator_UnknownDirectionColors(t *testing.T) {
	o, logs := newTestOrchestrator(t)
	palette := strip.DefaultPalette()

	res := o.Process(Snapshot{
		Timestamp: 1,
		References: &References{
			Stops: []StopRef{{ID: "stop-b", Name: "B"}},
			Trips: []TripRef{{ID: "T9", DirectionID: "5"}},
		},
		Vehicles: []VehicleStatus{{TripID: "T9", NextStopID: "stop-b"}},
	})

	assert.Equal(t, palette.UnknownStopped, res.Frame.Pixels[3])
	assert.Contains(t, logs.String(), "unknown direction")
}

func TestOrchestrator_FrameIsCopy(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	res := o.Process(Snapshot{
		Timestamp:  1,
		References: exampleReferences(),
		Vehicles:   []VehicleStatus{{TripID: "T1", NextStopID: "stop-b"}},
	})

	res.Frame.Pixels[3] = strip.Color{B: 9}
	f := o.Frame()
	f.Pixels[0] = strip.Color{B: 9}

	assert.Equal(t, strip.DefaultPalette().StoppedNorth, o.Frame().Pixels[3])
	assert.Equal(t, strip.Off, o.Frame().Pixels[0])
}

func TestOrchestrator_PublishedIsFromOneCommit(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	palette := strip.DefaultPalette()

	// Even timestamps show only T1 stopped at B (pixel 3), odd ones only T2
	// stopped at A (pixel 5).
	snapshot := func(ts int64) Snapshot {
		v := VehicleStatus{TripID: "T1", NextStopID: "stop-b"}
		if ts%2 == 1 {
			v = VehicleStatus{TripID: "T2", NextStopID: "stop-a"}
		}
		return Snapshot{Timestamp: ts, References: exampleReferences(), Vehicles: []VehicleStatus{v}}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ts := int64(1); ts <= 300; ts++ {
			o.Process(snapshot(ts))
		}
	}()

	for i := 0; i < 300; i++ {
		p := o.Published()
		if !p.Committed {
			continue
		}
		require.Len(t, p.Furthest, 1)
		if p.Timestamp%2 == 0 {
			require.Equal(t, 3, p.Furthest["T1"])
			require.Equal(t, palette.StoppedNorth, p.Frame.Pixels[3])
			require.Equal(t, palette.Off, p.Frame.Pixels[5])
		} else {
			require.Equal(t, 5, p.Furthest["T2"])
			require.Equal(t, palette.StoppedSouth, p.Frame.Pixels[5])
			require.Equal(t, palette.Off, p.Frame.Pixels[3])
		}
	}
	wg.Wait()

	p := o.Published()
	assert.Equal(t, int64(300), p.Timestamp)
	assert.Equal(t, FurthestTable{"T1": 3}, p.Furthest)
}
