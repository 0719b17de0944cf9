package models

// TripDetails is one entry of a trips-for-route list.
type TripDetails struct {
	Schedule     *Schedule                 `json:"schedule"`
	ServiceDate  int64                     `json:"serviceDate"`
	SituationIDs []string                  `json:"situationIds"`
	Status       *TripStatusForTripDetails `json:"status,omitempty"`
	TripID       string                    `json:"tripId"`
}

type TripStatusForTripDetails struct {
	ActiveTripID          string `json:"activeTripId"`
	ClosestStop           string `json:"closestStop"`
	ClosestStopTimeOffset int    `json:"closestStopTimeOffset"`
	LastUpdateTime        int64  `json:"lastUpdateTime"`
	NextStop              string `json:"nextStop"`
	NextStopTimeOffset    int    `json:"nextStopTimeOffset"`
	Phase                 string `json:"phase"`
	Predicted             bool   `json:"predicted"`
	ScheduleDeviation     int    `json:"scheduleDeviation"`
	ServiceDate           int64  `json:"serviceDate"`
	Status                string `json:"status"`
	VehicleID             string `json:"vehicleId"`
}

type Schedule struct {
	NextTripID     string     `json:"nextTripId"`
	PreviousTripID string     `json:"previousTripId"`
	StopTimes      []StopTime `json:"stopTimes"`
	TimeZone       string     `json:"timeZone"`
}

// StopTime times are seconds since the start of the service day.
type StopTime struct {
	ArrivalTime       int64   `json:"arrivalTime"`
	DepartureTime     int64   `json:"departureTime"`
	DistanceAlongTrip float64 `json:"distanceAlongTrip"`
	StopHeadsign      string  `json:"stopHeadsign"`
	StopID            string  `json:"stopId"`
}
