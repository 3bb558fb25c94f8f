// Package alert sends emergency SOS messages.
//
// An [Alert] carries an optional location. The [Dispatcher] renders it into
// the SOS text and hands it to a chain of [Notifier] implementations, each
// guarded by its own [Breaker]; the first notifier that delivers wins.
package alert

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat  float64
	Long float64
}

// Valid reports whether the coordinates are finite and within range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Long) || math.IsInf(l.Lat, 0) || math.IsInf(l.Long, 0) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Long >= -180 && l.Long <= 180
}

// MapsLink returns a Google Maps link pointing at the location.
func (l Location) MapsLink() string {
	return "https://maps.google.com/?q=" + formatCoord(l.Lat) + "," + formatCoord(l.Long)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Alert is one SOS request.
type Alert struct {
	// Location is nil when the device could not provide one.
	Location *Location

	// At is when the alert was raised.
	At time.Time
}

// LocationUnavailable is the location text used when no coordinates were
// supplied.
const LocationUnavailable = "Location unavailable"

// Message renders the SOS text sent to every channel.
func (a Alert) Message() string {
	loc := LocationUnavailable
	if a.Location != nil {
		loc = a.Location.MapsLink()
	}
	return fmt.Sprintf("EMERGENCY ALERT! User needs help. Location: %s", loc)
}

// Notifier delivers an alert over one channel. Implementations must be safe
// for concurrent use and must respect ctx.
type Notifier interface {
	// Name is a short label used in logs, metrics and breaker state.
	Name() string

	// Notify delivers msg. a is passed for channels that render structured
	// content.
	Notify(ctx context.Context, a Alert, msg string) error
}
