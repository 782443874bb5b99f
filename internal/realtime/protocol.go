package realtime

import (
	"strconv"
	"time"

	"fleettrack/internal/domain"
)

// Client -> server events.
const (
	EventSubscribeChannel   = "subscribe:channel"
	EventUnsubscribeChannel = "unsubscribe:channel"
	EventSubscribeTrip      = "subscribe:trip"
	EventUnsubscribeTrip    = "unsubscribe:trip"
	EventSubscribeCompany   = "subscribe:company"
	EventUnsubscribeCompany = "unsubscribe:company"
)

// Server -> client events.
const (
	EventTelemetryUpdate   = "telemetry:update"
	EventPositionUpdate    = "position:update"
	EventTripStatus        = "trip:status"
	EventChannelReassigned = "channel:reassigned"
	EventError             = "error"
)

func ChannelRoom(token string) string { return "channel:" + token }
func TripRoom(tripID int64) string    { return "trip:" + strconv.FormatInt(tripID, 10) }
func CompanyRoom(companyID int64) string {
	return "company:" + strconv.FormatInt(companyID, 10)
}

type clientMessage struct {
	Event     string `json:"event"`
	Token     string `json:"token,omitempty"`
	TripID    int64  `json:"tripId,omitempty"`
	CompanyID int64  `json:"companyId,omitempty"`
}

type serverMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type errorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// positionUpdate is the reduced view public channel rooms and the company
// map view receive.
type positionUpdate struct {
	TripID    *int64    `json:"tripId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

type tripStatusUpdate struct {
	TripID int64             `json:"tripId"`
	Status domain.TripStatus `json:"status"`
}

type channelReassigned struct {
	TripID *int64 `json:"tripId"`
}
