package models

// TripsForRouteResponse is the body of
// /api/where/trips-for-route/{route}.json.
type TripsForRouteResponse struct {
	Code        int                `json:"code"`
	CurrentTime int64              `json:"currentTime"`
	Text        string             `json:"text"`
	Version     int                `json:"version"`
	Data        *TripsForRouteData `json:"data"`
}

type TripsForRouteData struct {
	LimitExceeded bool             `json:"limitExceeded"`
	OutOfRange    bool             `json:"outOfRange"`
	List          []TripDetails    `json:"list"`
	References    *ReferencesModel `json:"references"`
}

// ReferencesModel carries the entities the list refers to by id. Only the
// sections the estimator reads are decoded; nil means the section was
// absent from the response.
type ReferencesModel struct {
	Stops []Stop `json:"stops"`
	Trips []Trip `json:"trips"`
}

type Stop struct {
	Code      string  `json:"code"`
	Direction string  `json:"direction"`
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Name      string  `json:"name"`
	Parent    string  `json:"parent"`
}

type Trip struct {
	BlockID        string `json:"blockId"`
	DirectionID    string `json:"directionId"`
	ID             string `json:"id"`
	RouteID        string `json:"routeId"`
	RouteShortName string `json:"routeShortName"`
	ServiceID      string `json:"serviceId"`
	ShapeID        string `json:"shapeId"`
	TripHeadsign   string `json:"tripHeadsign"`
}
