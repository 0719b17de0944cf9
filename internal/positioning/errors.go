package positioning

import "errors"

var (
	// ErrMalformedSnapshot aborts a whole cycle.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	ErrUnresolvedTrip   = errors.New("trip not in reference table")
	ErrUnresolvedStop   = errors.New("stop not in reference table")
	ErrStopNotOnLayout  = errors.New("stop not on strip layout")
	ErrMissingSchedule  = errors.New("no schedule to derive travel time")
	ErrOutOfRange       = errors.New("pixel index outside strip")
	ErrVehicleProcessor = errors.New("vehicle processing failed")
)

// SkipReason labels why a vehicle was left out of a frame.
type SkipReason string

const (
	SkipUnresolvedTrip  SkipReason = "unresolved_trip"
	SkipUnresolvedStop  SkipReason = "unresolved_stop"
	SkipStopNotOnLayout SkipReason = "stop_not_on_layout"
	SkipMissingSchedule SkipReason = "missing_schedule"
	SkipOutOfRange      SkipReason = "out_of_range"
	SkipInternal        SkipReason = "internal"
)

func reasonFor(err error) SkipReason {
	switch {
	case errors.Is(err, ErrUnresolvedTrip):
		return SkipUnresolvedTrip
	case errors.Is(err, ErrUnresolvedStop):
		return SkipUnresolvedStop
	case errors.Is(err, ErrStopNotOnLayout):
		return SkipStopNotOnLayout
	case errors.Is(err, ErrMissingSchedule):
		return SkipMissingSchedule
	case errors.Is(err, ErrOutOfRange):
		return SkipOutOfRange
	default:
		return SkipInternal
	}
}
