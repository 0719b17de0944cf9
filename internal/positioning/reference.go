package positioning

import (
	"fmt"

	"github.com/cbmason/trainspotting/internal/strip"
)

// StopTable maps stop id to stop name.
type StopTable map[string]string

// TripDirectionTable maps trip id to direction of travel.
type TripDirectionTable map[string]strip.Direction

// TravelTimeTable maps stop id to the scheduled seconds spent on the
// segment ending at that stop. Values are never below 1.
type TravelTimeTable map[string]int64

// RebuildStops builds the stop table for one cycle.
func RebuildStops(stops []StopRef) (StopTable, error) {
	if stops == nil {
		return nil, fmt.Errorf("%w: references.stops missing", ErrMalformedSnapshot)
	}
	table := make(StopTable, len(stops))
	for i, stop := range stops {
		if stop.ID == "" || stop.Name == "" {
			return nil, fmt.Errorf("%w: references.stops[%d] missing id or name", ErrMalformedSnapshot, i)
		}
		table[stop.ID] = stop.Name
	}
	return table, nil
}

// RebuildTrips builds the trip direction table for one cycle. Direction
// values other than "0" and "1" are kept as strip.Unknown.
func RebuildTrips(trips []TripRef) (TripDirectionTable, error) {
	if trips == nil {
		return nil, fmt.Errorf("%w: references.trips missing", ErrMalformedSnapshot)
	}
	table := make(TripDirectionTable, len(trips))
	for i, trip := range trips {
		if trip.ID == "" {
			return nil, fmt.Errorf("%w: references.trips[%d] missing id", ErrMalformedSnapshot, i)
		}
		table[trip.ID] = strip.ParseDirection(trip.DirectionID)
	}
	return table, nil
}

// Resolve returns the travel time for stopID, filling the whole table from
// schedule when the stop has not been seen this cycle. The first scheduled
// stop gets its dwell time, later stops the gap between consecutive
// arrivals.
func (t TravelTimeTable) Resolve(stopID string, schedule []ScheduledStop) (int64, error) {
	if v, ok := t[stopID]; ok {
		return v, nil
	}
	if len(schedule) == 0 {
		return 0, fmt.Errorf("%w: stop %s", ErrMissingSchedule, stopID)
	}

	t.populate(schedule)

	v, ok := t[stopID]
	if !ok {
		return 0, fmt.Errorf("%w: stop %s not in vehicle schedule", ErrMissingSchedule, stopID)
	}
	return v, nil
}

func (t TravelTimeTable) populate(schedule []ScheduledStop) {
	first := schedule[0]
	t[first.StopID] = atLeastOne(first.DepartureTime - first.ArrivalTime)
	for i := 1; i < len(schedule); i++ {
		t[schedule[i].StopID] = atLeastOne(schedule[i].ArrivalTime - schedule[i-1].ArrivalTime)
	}
}

// atLeastOne keeps the ratio division defined and positive.
func atLeastOne(seconds int64) int64 {
	if seconds < 1 {
		return 1
	}
	return seconds
}
