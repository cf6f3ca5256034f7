package websocket_test

import (
	"os"
	"testing"
	"time"

	"github.com/brianodhis/lessonlink/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	go websocket.RunHub()
	os.Exit(m.Run())
}

type fakeSink struct {
	events chan websocket.Event
}

func newFakeSink() *fakeSink {
	return &fakeSink{events: make(chan websocket.Event, 16)}
}

func (f *fakeSink) WriteJSON(v interface{}) error {
	f.events <- v.(websocket.Event)
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) receive(t *testing.T) websocket.Event {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return websocket.Event{}
	}
}

func (f *fakeSink) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case ev := <-f.events:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubPersonalRoom(t *testing.T) {
	sink := newFakeSink()
	client := &websocket.Client{UserID: uuid.New(), Conn: sink}
	websocket.Register <- client

	websocket.Publish(
		[]string{websocket.UserRoom(client.UserID)},
		websocket.Event{Type: websocket.EventBookingRequested, Payload: "hello"},
	)

	ev := sink.receive(t)
	assert.Equal(t, websocket.EventBookingRequested, ev.Type)
	assert.Equal(t, "hello", ev.Payload)

	websocket.Unregister <- client
}

func TestHubRoomSubscription(t *testing.T) {
	teacherID := uuid.New()

	watcher := newFakeSink()
	watcherClient := &websocket.Client{UserID: uuid.New(), Conn: watcher}
	websocket.Register <- watcherClient
	websocket.Subscribe <- websocket.Subscription{Client: watcherClient, Room: websocket.AvailabilityRoom(teacherID)}

	bystander := newFakeSink()
	bystanderClient := &websocket.Client{UserID: uuid.New(), Conn: bystander}
	websocket.Register <- bystanderClient

	websocket.Publish(
		[]string{websocket.AvailabilityRoom(teacherID)},
		websocket.Event{Type: websocket.EventAvailabilityInvalidated, Payload: teacherID.String()},
	)

	ev := watcher.receive(t)
	assert.Equal(t, websocket.EventAvailabilityInvalidated, ev.Type)
	bystander.expectNothing(t)

	websocket.Unregister <- watcherClient
	websocket.Unregister <- bystanderClient
}

func TestHubStatusEventCarriesStatus(t *testing.T) {
	studentID := uuid.New()

	sink := newFakeSink()
	client := &websocket.Client{UserID: studentID, Conn: sink}
	websocket.Register <- client
	websocket.Subscribe <- websocket.Subscription{Client: client, Room: websocket.BookingsRoom(studentID)}

	websocket.Publish(
		[]string{websocket.BookingsRoom(studentID)},
		websocket.Event{Type: websocket.EventBookingStatusChanged, Status: "approved"},
	)

	ev := sink.receive(t)
	require.Equal(t, websocket.EventBookingStatusChanged, ev.Type)
	assert.Equal(t, "approved", ev.Status)

	websocket.Unregister <- client
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	sink := newFakeSink()
	client := &websocket.Client{UserID: uuid.New(), Conn: sink}
	websocket.Register <- client
	websocket.Unregister <- client

	websocket.Publish(
		[]string{websocket.UserRoom(client.UserID)},
		websocket.Event{Type: websocket.EventBookingRequested},
	)
	sink.expectNothing(t)
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	userID := uuid.New()

	stale := newFakeSink()
	websocket.Register <- &websocket.Client{UserID: userID, Conn: stale}

	fresh := newFakeSink()
	websocket.Register <- &websocket.Client{UserID: userID, Conn: fresh}

	websocket.Publish(
		[]string{websocket.UserRoom(userID)},
		websocket.Event{Type: websocket.EventBookingRequested},
	)

	fresh.receive(t)
	stale.expectNothing(t)
}
