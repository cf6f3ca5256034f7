package websocket

import (
	"log"

	"github.com/google/uuid"
)

// Sink is the write side of a connected client. The fiber websocket conn
// satisfies it; tests substitute an in-memory implementation.
type Sink interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Sink
}

type Subscription struct {
	Client *Client
	Room   string
}

const (
	EventBookingRequested        = "booking.requested"
	EventBookingStatusChanged    = "booking.status_changed"
	EventBookingCancelled        = "booking.cancelled"
	EventAvailabilityInvalidated = "availability.invalidated"
)

// Event is what subscribers receive. Status is set for status changes;
// Payload carries the affected record.
type Event struct {
	Type    string      `json:"type"`
	Status  string      `json:"status,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type notice struct {
	rooms []string
	event Event
}

// UserRoom is a subject's personal channel, joined automatically on
// connect. BookingsRoom and AvailabilityRoom are opt-in via a subscribe
// frame.
func UserRoom(id uuid.UUID) string { return "user:" + id.String() }

func BookingsRoom(id uuid.UUID) string { return "bookings:" + id.String() }

func AvailabilityRoom(teacherID uuid.UUID) string { return "availability:" + teacherID.String() }

var (
	Register    = make(chan *Client)
	Unregister  = make(chan *Client)
	Subscribe   = make(chan Subscription)
	publishChan = make(chan notice, 256)
)

// Publish fans an event out to every client in the given rooms. It never
// blocks: notifications are a best-effort side channel, and a full buffer
// drops the event rather than stalling the booking mutation that emitted
// it.
func Publish(rooms []string, event Event) {
	select {
	case publishChan <- notice{rooms: rooms, event: event}:
	default:
		log.Printf("Notification buffer full, dropping %s event", event.Type)
	}
}

func RunHub() {
	rooms := make(map[string]map[uuid.UUID]Sink)
	membership := make(map[uuid.UUID][]string)

	join := func(client *Client, room string) {
		if rooms[room] == nil {
			rooms[room] = make(map[uuid.UUID]Sink)
		}
		rooms[room][client.UserID] = client.Conn
		membership[client.UserID] = append(membership[client.UserID], room)
	}

	drop := func(userID uuid.UUID) {
		for _, room := range membership[userID] {
			delete(rooms[room], userID)
			if len(rooms[room]) == 0 {
				delete(rooms, room)
			}
		}
		delete(membership, userID)
	}

	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			drop(client.UserID)
			join(client, UserRoom(client.UserID))
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			if conn, ok := rooms[UserRoom(client.UserID)][client.UserID]; ok && conn == client.Conn {
				drop(client.UserID)
			}
		case sub := <-Subscribe:
			join(sub.Client, sub.Room)
		case n := <-publishChan:
			for _, room := range n.rooms {
				for userID, conn := range rooms[room] {
					if err := conn.WriteJSON(n.event); err != nil {
						log.Printf("Error sending %s event to client %s: %v", n.event.Type, userID, err)
						conn.Close()
						drop(userID)
					}
				}
			}
		}
	}
}
