package futar

import (
	"encoding/json"
	"fmt"
	"time"
)

// The Futár OTP dialect encodes currentTime as integer Unix milliseconds
// while the per-stop-time departure fields are integer Unix seconds.
// Both decode into UTC instants.

// Millis is an instant wire-encoded as Unix milliseconds.
type Millis struct {
	time.Time
}

// UnmarshalJSON decodes an integer millisecond timestamp.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("millisecond timestamp: %w", err)
	}
	m.Time = time.UnixMilli(n).UTC()
	return nil
}

// Seconds is an instant wire-encoded as Unix seconds.
type Seconds struct {
	time.Time
}

// UnmarshalJSON decodes an integer second timestamp.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("second timestamp: %w", err)
	}
	s.Time = time.Unix(n, 0).UTC()
	return nil
}

// arrivalsResponse mirrors the arrivals-and-departures-for-stop response
// shape, reduced to the fields the board consumes.
type arrivalsResponse struct {
	CurrentTime Millis `json:"currentTime"`
	// Status and Code form the OTP error envelope; the API reports
	// failures here even under an HTTP 200.
	Status string       `json:"status"`
	Code   int          `json:"code"`
	Data   responseData `json:"data"`
}

type responseData struct {
	LimitExceeded bool          `json:"limitExceeded"`
	Entry         arrivalsEntry `json:"entry"`
	References    references    `json:"references"`
}

type arrivalsEntry struct {
	StopID    string     `json:"stopId"`
	StopTimes []stopTime `json:"stopTimes"`
}

// stopTime is one schedule entry for one trip at one stop. Departure
// fields are optional: a pure schedule entry has no prediction and a
// cancelled one may have neither.
type stopTime struct {
	StopID                 string   `json:"stopId"`
	StopHeadsign           string   `json:"stopHeadsign"`
	DepartureTime          *Seconds `json:"departureTime"`
	PredictedDepartureTime *Seconds `json:"predictedDepartureTime"`
	Uncertain              *bool    `json:"uncertain"`
	TripID                 string   `json:"tripId"`
}

type references struct {
	Routes map[string]routeRef `json:"routes"`
	Trips  map[string]tripRef  `json:"trips"`
}

type routeRef struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
}

type tripRef struct {
	ID      string `json:"id"`
	RouteID string `json:"routeId"`
}
