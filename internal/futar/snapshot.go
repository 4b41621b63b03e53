// Package futar talks to the BKK Futár arrivals API and converts its
// responses into immutable departure snapshots for the display pipeline.
package futar

import (
	"fmt"
	"time"
)

// Certainty grades how trustworthy a departure instant is.
type Certainty int

const (
	// CertaintyLive means a real-time prediction exists.
	CertaintyLive Certainty = iota
	// CertaintyScheduled means only the static schedule time exists.
	CertaintyScheduled
	// CertaintyUncertain means the source flagged the entry as unreliable.
	CertaintyUncertain
)

func (c Certainty) String() string {
	switch c {
	case CertaintyLive:
		return "live"
	case CertaintyScheduled:
		return "scheduled"
	case CertaintyUncertain:
		return "uncertain"
	}
	return fmt.Sprintf("certainty(%d)", int(c))
}

// ClassifyCertainty derives the certainty grade from the two source
// signals. The explicit uncertain flag dominates the prediction.
func ClassifyCertainty(hasPrediction, uncertain bool) Certainty {
	switch {
	case uncertain:
		return CertaintyUncertain
	case hasPrediction:
		return CertaintyLive
	default:
		return CertaintyScheduled
	}
}

// Departure is one upcoming stop event: a vehicle leaving a stop.
type Departure struct {
	StopID    string
	RouteName string
	Headsign  string
	// DepartureAt is the predicted instant when a prediction exists,
	// otherwise the scheduled one. Never fabricated.
	DepartureAt time.Time
	Certainty   Certainty
}

// Snapshot is the immutable result of one successful fetch. It is
// replaced wholesale by the next fetch and never mutated, so readers in
// other goroutines always observe a complete snapshot.
type Snapshot struct {
	// ServerTime is the instant the API considered "now". All countdown
	// math is relative to it, never to the local clock.
	ServerTime time.Time
	// Departures preserves source order, which doubles as the priority
	// order when a stop has more entries than display lines.
	Departures []Departure
	// LimitExceeded reports that the API truncated the stop time list.
	LimitExceeded bool
}

// snapshotFromResponse flattens a decoded response into a Snapshot.
// A non-OK envelope status, a dangling trip or a dangling route
// reference makes the whole response malformed; entries without any
// departure instant are skipped.
func snapshotFromResponse(resp *arrivalsResponse) (*Snapshot, error) {
	if resp.Status != "" && resp.Status != "OK" {
		return nil, fmt.Errorf("api status %s (code %d)", resp.Status, resp.Code)
	}

	departures := make([]Departure, 0, len(resp.Data.Entry.StopTimes))

	for _, st := range resp.Data.Entry.StopTimes {
		if st.DepartureTime == nil && st.PredictedDepartureTime == nil {
			continue
		}

		trip, ok := resp.Data.References.Trips[st.TripID]
		if !ok {
			return nil, fmt.Errorf("stop time for %s references unknown trip %q", st.StopID, st.TripID)
		}
		route, ok := resp.Data.References.Routes[trip.RouteID]
		if !ok {
			return nil, fmt.Errorf("trip %q references unknown route %q", st.TripID, trip.RouteID)
		}

		hasPrediction := st.PredictedDepartureTime != nil
		departureAt := st.DepartureTime
		if hasPrediction {
			departureAt = st.PredictedDepartureTime
		}

		departures = append(departures, Departure{
			StopID:      st.StopID,
			RouteName:   route.ShortName,
			Headsign:    st.StopHeadsign,
			DepartureAt: departureAt.Time,
			Certainty:   ClassifyCertainty(hasPrediction, st.Uncertain != nil && *st.Uncertain),
		})
	}

	return &Snapshot{
		ServerTime:    resp.CurrentTime.Time,
		Departures:    departures,
		LimitExceeded: resp.Data.LimitExceeded,
	}, nil
}
