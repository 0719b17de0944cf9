package feed

import (
	"github.com/cbmason/trainspotting/internal/models"
	"github.com/cbmason/trainspotting/internal/positioning"
)

// ToSnapshot converts a trips-for-route response. A response without a
// data or references section yields a snapshot with nil References, which
// the orchestrator treats as malformed.
//
// The snapshot timestamp is the response's currentTime. Vehicle
// lastUpdateTime values are per-vehicle AVL fixes and say nothing about
// whether the trip list itself changed.
func ToSnapshot(resp *models.TripsForRouteResponse) positioning.Snapshot {
	if resp == nil {
		return positioning.Snapshot{}
	}
	snap := positioning.Snapshot{Timestamp: resp.CurrentTime}
	if resp.Data == nil {
		return snap
	}

	if refs := resp.Data.References; refs != nil {
		snap.References = &positioning.References{}
		if refs.Stops != nil {
			snap.References.Stops = make([]positioning.StopRef, 0, len(refs.Stops))
			for _, s := range refs.Stops {
				snap.References.Stops = append(snap.References.Stops, positioning.StopRef{ID: s.ID, Name: s.Name})
			}
		}
		if refs.Trips != nil {
			snap.References.Trips = make([]positioning.TripRef, 0, len(refs.Trips))
			for _, t := range refs.Trips {
				snap.References.Trips = append(snap.References.Trips, positioning.TripRef{ID: t.ID, DirectionID: t.DirectionID})
			}
		}
	}

	snap.Vehicles = make([]positioning.VehicleStatus, 0, len(resp.Data.List))
	for _, entry := range resp.Data.List {
		v := positioning.VehicleStatus{TripID: entry.TripID}
		if entry.Status != nil {
			v.NextStopID = entry.Status.NextStop
			v.NextStopOffset = entry.Status.NextStopTimeOffset
		}
		if entry.Schedule != nil {
			v.Schedule = make([]positioning.ScheduledStop, 0, len(entry.Schedule.StopTimes))
			for _, st := range entry.Schedule.StopTimes {
				v.Schedule = append(v.Schedule, positioning.ScheduledStop{
					StopID:        st.StopID,
					ArrivalTime:   st.ArrivalTime,
					DepartureTime: st.DepartureTime,
				})
			}
		}
		snap.Vehicles = append(snap.Vehicles, v)
	}
	return snap
}
