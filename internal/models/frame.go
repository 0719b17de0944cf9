package models

// LineSummary describes one configured strip.
type LineSummary struct {
	Name          string `json:"name"`
	RouteID       string `json:"routeId"`
	Length        int    `json:"length"`
	State         string `json:"state"`
	Committed     bool   `json:"committed"`
	LastTimestamp int64  `json:"lastTimestamp"`
}

// PixelModel is one lit pixel of a frame.
type PixelModel struct {
	Index int      `json:"index"`
	Color string   `json:"color"`
	Trips []string `json:"trips"`
}

// FrameEntry is the current frame of a line. Only lit pixels are listed.
type FrameEntry struct {
	Line      string         `json:"line"`
	Length    int            `json:"length"`
	Timestamp int64          `json:"timestamp"`
	Committed bool           `json:"committed"`
	OffColor  string         `json:"offColor"`
	Pixels    []PixelModel   `json:"pixels"`
	Furthest  map[string]int `json:"furthest"`
}

// LayoutEntry is the static stop layout of a line.
type LayoutEntry struct {
	Line   string         `json:"line"`
	Length int            `json:"length"`
	North  map[string]int `json:"north"`
	South  map[string]int `json:"south"`
}
