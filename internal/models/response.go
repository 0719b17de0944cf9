package models

import (
	"github.com/cbmason/trainspotting/internal/clock"
)

// ResponseModel is the OneBusAway response envelope. The local HTTP API
// uses the same envelope so clients can share a decoder.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     2,
	}
}

// ListData is the data section of list responses.
type ListData[T any] struct {
	LimitExceeded bool `json:"limitExceeded"`
	List          []T  `json:"list"`
}
