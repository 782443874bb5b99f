package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memberSpy struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (m *memberSpy) Send(event string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection gone")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memberSpy) received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func TestRoomsBroadcastReachesOnlyMembers(t *testing.T) {
	rooms := NewRooms()
	a := &memberSpy{}
	b := &memberSpy{}

	rooms.Join("trip:1", a)
	rooms.Join("trip:2", b)

	rooms.Broadcast("trip:1", EventTelemetryUpdate, nil)

	assert.Equal(t, []string{EventTelemetryUpdate}, a.received())
	assert.Empty(t, b.received())
}

func TestRoomsLeaveStopsDelivery(t *testing.T) {
	rooms := NewRooms()
	a := &memberSpy{}

	rooms.Join("company:1", a)
	rooms.Leave("company:1", a)
	rooms.Broadcast("company:1", EventPositionUpdate, nil)

	assert.Empty(t, a.received())
	assert.Equal(t, 0, rooms.Count("company:1"))
}

func TestRoomsFailingMemberIsEvictedEverywhere(t *testing.T) {
	rooms := NewRooms()
	broken := &memberSpy{fail: true}
	healthy := &memberSpy{}

	rooms.Join("trip:1", broken)
	rooms.Join("company:1", broken)
	rooms.Join("trip:1", healthy)

	rooms.Broadcast("trip:1", EventTelemetryUpdate, nil)

	assert.Equal(t, []string{EventTelemetryUpdate}, healthy.received())
	assert.Equal(t, 1, rooms.Count("trip:1"))
	assert.Equal(t, 0, rooms.Count("company:1"))
}

func TestRoomsLeaveAll(t *testing.T) {
	rooms := NewRooms()
	a := &memberSpy{}

	rooms.Join("trip:1", a)
	rooms.Join("channel:tok", a)
	rooms.LeaveAll(a)

	assert.Equal(t, 0, rooms.Count("trip:1"))
	assert.Equal(t, 0, rooms.Count("channel:tok"))
}

func TestRoomsConcurrentJoinBroadcast(t *testing.T) {
	rooms := NewRooms()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := &memberSpy{}
			rooms.Join("trip:1", s)
			rooms.Leave("trip:1", s)
		}()
		go func() {
			defer wg.Done()
			rooms.Broadcast("trip:1", EventTelemetryUpdate, nil)
		}()
	}
	wg.Wait()
}
