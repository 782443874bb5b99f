package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection. The write mutex serializes sends from
// the broadcast paths and the read loop.
type Client struct {
	id        string
	conn      *websocket.Conn
	authToken string
	mu        sync.Mutex
}

func (c *Client) Send(event string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(serverMessage{Event: event, Data: data})
}

// Gateway manages subscriber connections and rooms and fans events out to
// them. It implements domain.Broadcaster.
type Gateway struct {
	rooms   *Rooms
	service *Service
	logger  *util.Logger
}

func NewGateway(service *Service, logger *util.Logger) *Gateway {
	return &Gateway{
		rooms:   NewRooms(),
		service: service,
		logger:  logger,
	}
}

// ServeWS upgrades the connection and runs its read loop. The bearer
// credential, if any, rides on the Authorization header or a token query
// parameter and is checked per subscription request, not at connect time.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.ServeWS"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn(instance, fmt.Sprintf("upgrade failed: %v", err))
		return
	}

	client := &Client{
		id:        uuid.NewString(),
		conn:      conn,
		authToken: extractAuthToken(r),
	}

	g.logger.Info(instance, fmt.Sprintf("client connected: %s", client.id))

	defer func() {
		g.rooms.LeaveAll(client)
		conn.Close()
		g.logger.Info(instance, fmt.Sprintf("client disconnected: %s", client.id))
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		g.handle(r, client, msg)
	}
}

// handle dispatches one client request. Authorization failures emit a scoped
// error event; the connection stays usable.
func (g *Gateway) handle(r *http.Request, client *Client, msg clientMessage) {
	instance := "Gateway.handle"
	ctx := r.Context()

	switch msg.Event {
	case EventSubscribeChannel:
		if err := g.service.ValidateChannelSubscription(ctx, msg.Token); err != nil {
			g.emitError(client, msg.Event, err)
			return
		}
		g.rooms.Join(ChannelRoom(msg.Token), client)
		g.logger.Info(instance, fmt.Sprintf("client %s subscribed to channel %s", client.id, msg.Token))

	case EventUnsubscribeChannel:
		g.rooms.Leave(ChannelRoom(msg.Token), client)

	case EventSubscribeTrip:
		if err := g.service.ValidateTripSubscription(ctx, client.authToken, msg.TripID); err != nil {
			g.emitError(client, msg.Event, err)
			return
		}
		g.rooms.Join(TripRoom(msg.TripID), client)
		g.logger.Info(instance, fmt.Sprintf("client %s subscribed to trip %d", client.id, msg.TripID))

	case EventUnsubscribeTrip:
		g.rooms.Leave(TripRoom(msg.TripID), client)

	case EventSubscribeCompany:
		if err := g.service.ValidateCompanySubscription(client.authToken, msg.CompanyID); err != nil {
			g.emitError(client, msg.Event, err)
			return
		}
		g.rooms.Join(CompanyRoom(msg.CompanyID), client)
		g.logger.Info(instance, fmt.Sprintf("client %s subscribed to company %d", client.id, msg.CompanyID))

	case EventUnsubscribeCompany:
		g.rooms.Leave(CompanyRoom(msg.CompanyID), client)

	default:
		g.emitError(client, msg.Event, fmt.Errorf("unknown event"))
	}
}

func (g *Gateway) emitError(client *Client, event string, err error) {
	_ = client.Send(EventError, errorPayload{Event: event, Error: err.Error()})
}

// BroadcastTelemetry emits a telemetry event to the trip and company rooms
// and a reduced position update to every assigned channel room. A nil
// tripID means the reading only moved the vehicle breadcrumb; only the
// company map view hears about it.
func (g *Gateway) BroadcastTelemetry(tripID *int64, companyID int64, channelTokens []string, data domain.SensorData) {
	pos := positionUpdate{
		TripID:    tripID,
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
		Speed:     data.Speed,
		Datetime:  data.Datetime,
	}

	if tripID == nil {
		g.rooms.Broadcast(CompanyRoom(companyID), EventPositionUpdate, pos)
		return
	}

	g.rooms.Broadcast(TripRoom(*tripID), EventTelemetryUpdate, data)
	g.rooms.Broadcast(CompanyRoom(companyID), EventTelemetryUpdate, data)
	for _, token := range channelTokens {
		g.rooms.Broadcast(ChannelRoom(token), EventPositionUpdate, pos)
	}
}

func (g *Gateway) BroadcastTripStatusChange(tripID, companyID int64, channelTokens []string, status domain.TripStatus) {
	update := tripStatusUpdate{TripID: tripID, Status: status}

	g.rooms.Broadcast(TripRoom(tripID), EventTripStatus, update)
	g.rooms.Broadcast(CompanyRoom(companyID), EventTripStatus, update)
	for _, token := range channelTokens {
		g.rooms.Broadcast(ChannelRoom(token), EventTripStatus, update)
	}
}

func (g *Gateway) BroadcastChannelReassigned(channelToken string, newTripID *int64) {
	g.rooms.Broadcast(ChannelRoom(channelToken), EventChannelReassigned, channelReassigned{TripID: newTripID})
}

func extractAuthToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
