package positioning

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/strip"
)

// State is the orchestrator's position in the cycle.
type State int32

const (
	Idle State = iota
	BuildingReferences
	EstimatingVehicles
	Committing
	AbortedCycle
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BuildingReferences:
		return "building_references"
	case EstimatingVehicles:
		return "estimating_vehicles"
	case Committing:
		return "committing"
	case AbortedCycle:
		return "aborted_cycle"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Outcome is how a cycle ended.
type Outcome int

const (
	Committed Outcome = iota
	Duplicate
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Duplicate:
		return "duplicate"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// DefaultDuplicateMarkers are trip id fragments the feed uses for shadow
// copies of a real trip.
var DefaultDuplicateMarkers = []string{"_dup"}

// SkippedVehicle is a vehicle left out of a committed frame.
type SkippedVehicle struct {
	TripID string
	Reason SkipReason
	Err    error
}

// Result summarizes one call to Process.
type Result struct {
	Outcome   Outcome
	Timestamp int64
	// Frame is the frame in effect after the cycle: the new one when
	// committed, the previous one otherwise.
	Frame      strip.Frame
	Rendered   int
	Duplicates int
	Collisions int
	Skipped    []SkippedVehicle
	// Err is set when the cycle aborted.
	Err error
}

// Config is the static configuration of one strip.
type Config struct {
	Name             string
	Layout           *strip.Layout
	Palette          strip.Palette
	DuplicateMarkers []string
	Logger           *slog.Logger
}

// Orchestrator runs cycles for one strip and owns the state that crosses
// cycle boundaries.
type Orchestrator struct {
	name    string
	layout  *strip.Layout
	palette strip.Palette
	markers []string
	logger  *slog.Logger

	// cycleMu serializes Process.
	cycleMu sync.Mutex
	state   atomic.Int32

	// mu guards the published state below. It is replaced whole at commit.
	mu            sync.RWMutex
	frame         strip.Frame
	furthest      FurthestTable
	lastTimestamp int64
	committed     bool
}

// NewOrchestrator validates cfg and returns an orchestrator showing an
// all-off frame.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Layout == nil {
		return nil, errors.New("orchestrator: layout is required")
	}
	if len(cfg.Layout.North) == 0 || len(cfg.Layout.South) == 0 {
		return nil, fmt.Errorf("orchestrator: %w: empty direction table", strip.ErrInvalidLayout)
	}

	markers := cfg.DuplicateMarkers
	if markers == nil {
		markers = DefaultDuplicateMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		name:     cfg.Name,
		layout:   cfg.Layout,
		palette:  cfg.Palette,
		markers:  lowered,
		logger:   logger.With(slog.String("component", "orchestrator"), slog.String("line", cfg.Name)),
		frame:    strip.NewFrame(cfg.Layout.Length, cfg.Palette.Off),
		furthest: make(FurthestTable),
	}, nil
}

// Name returns the strip name.
func (o *Orchestrator) Name() string { return o.name }

// Layout returns the strip layout.
func (o *Orchestrator) Layout() *strip.Layout { return o.layout }

// Palette returns the strip palette.
func (o *Orchestrator) Palette() strip.Palette { return o.palette }

// State returns the current cycle state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Frame returns a copy of the last committed frame.
func (o *Orchestrator) Frame() strip.Frame {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.frame.Clone()
}

// Furthest returns a copy of the furthest-pixel-per-trip table.
func (o *Orchestrator) Furthest() FurthestTable {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.furthest.Clone()
}

// LastCommitted returns the timestamp of the last committed snapshot.
func (o *Orchestrator) LastCommitted() (int64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastTimestamp, o.committed
}

// Published is the output of the last committed cycle.
type Published struct {
	Frame     strip.Frame
	Furthest  FurthestTable
	Timestamp int64
	Committed bool
}

// Published returns copies of the frame, the furthest table and the
// timestamp, all from the same commit.
func (o *Orchestrator) Published() Published {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Published{
		Frame:     o.frame.Clone(),
		Furthest:  o.furthest.Clone(),
		Timestamp: o.lastTimestamp,
		Committed: o.committed,
	}
}

// Process runs one cycle. It never returns an error: a malformed snapshot
// aborts the cycle and leaves the previous frame and history in place,
// and per-vehicle failures only drop that vehicle.
func (o *Orchestrator) Process(snap Snapshot) Result {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()
	defer o.setState(Idle)

	o.mu.RLock()
	prevFrame := o.frame
	history := o.furthest
	duplicate := o.committed && o.lastTimestamp == snap.Timestamp
	o.mu.RUnlock()

	if duplicate {
		o.logger.Debug("snapshot already processed", slog.Int64("timestamp", snap.Timestamp))
		return Result{Outcome: Duplicate, Timestamp: snap.Timestamp, Frame: prevFrame.Clone()}
	}

	o.setState(BuildingReferences)
	tables, err := buildTables(snap)
	if err != nil {
		o.setState(AbortedCycle)
		logging.LogError(o.logger, "Unable to read reference tables, keeping previous frame", err,
			slog.Int64("timestamp", snap.Timestamp))
		return Result{Outcome: Aborted, Timestamp: snap.Timestamp, Frame: prevFrame.Clone(), Err: err}
	}

	o.setState(EstimatingVehicles)
	c := newCanvas(o.layout.Length, o.palette)
	next := make(FurthestTable, len(snap.Vehicles))
	result := Result{Timestamp: snap.Timestamp}

	for _, vehicle := range snap.Vehicles {
		if o.isSyntheticDuplicate(vehicle.TripID) {
			result.Duplicates++
			continue
		}
		idx, err := o.placeVehicle(vehicle, tables, history, c)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedVehicle{
				TripID: vehicle.TripID,
				Reason: reasonFor(err),
				Err:    err,
			})
			o.logger.Warn("skipping vehicle",
				slog.String("trip_id", vehicle.TripID),
				slog.String("next_stop", vehicle.NextStopID),
				slog.String("error", err.Error()))
			continue
		}
		next[vehicle.TripID] = idx
		result.Rendered++
	}

	o.setState(Committing)
	result.Outcome = Committed
	result.Collisions = c.collisions()
	result.Frame = c.frame.Clone()

	o.mu.Lock()
	o.frame = c.frame
	o.furthest = next
	o.lastTimestamp = snap.Timestamp
	o.committed = true
	o.mu.Unlock()

	o.logger.Debug("cycle committed",
		slog.Int64("timestamp", snap.Timestamp),
		slog.Int("rendered", result.Rendered),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("collisions", result.Collisions))

	return result
}

// placeVehicle estimates, smooths and draws one vehicle, returning the
// pixel it was drawn at.
func (o *Orchestrator) placeVehicle(vehicle VehicleStatus, tables Tables, history FurthestTable, c *canvas) (idx int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrVehicleProcessor, r)
		}
	}()

	est, err := EstimatePosition(o.layout, vehicle, tables)
	if err != nil {
		return 0, err
	}
	if est.Direction == strip.Unknown {
		o.logger.Warn("unknown direction, using northbound table", slog.String("trip_id", vehicle.TripID))
	}

	idx = Smooth(vehicle.TripID, est.Index, history)
	stopped := est.AtStop && o.layout.IsStopIndex(est.Direction, idx)
	c.draw(idx, est.Direction, stopped, vehicle.TripID)
	return idx, nil
}

func (o *Orchestrator) isSyntheticDuplicate(tripID string) bool {
	lowered := strings.ToLower(tripID)
	for _, m := range o.markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

func buildTables(snap Snapshot) (Tables, error) {
	if snap.References == nil {
		return Tables{}, fmt.Errorf("%w: references missing", ErrMalformedSnapshot)
	}
	stops, err := RebuildStops(snap.References.Stops)
	if err != nil {
		return Tables{}, err
	}
	trips, err := RebuildTrips(snap.References.Trips)
	if err != nil {
		return Tables{}, err
	}
	return Tables{Stops: stops, Trips: trips, TravelTimes: make(TravelTimeTable)}, nil
}
