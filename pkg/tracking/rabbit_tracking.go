package tracking

import (
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tlind/drive-finder/pkg/messaging"
	"github.com/tlind/drive-finder/pkg/types"
)

const trackingTopic = messaging.Topic("tracking")

type RabbitTracking struct {
	market     string
	connection *amqp.Connection
}

func NewRabbitTracking(url, market string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		connection: nil,
		market:     market,
	}
	if err := ret.connect(url); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return messaging.DefineTopic(ch, "global", trackingTopic)
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) send(data any) error {
	return messaging.Publish(t.connection, "global", trackingTopic, data)
}

func (t *RabbitTracking) base(sessionId uint32, event uint16) *BaseEvent {
	return &BaseEvent{
		SessionId: int(sessionId),
		Market:    t.market,
		Event:     event,
	}
}

func (t *RabbitTracking) TrackSession(sessionId uint32, r *http.Request) error {
	return t.send(SessionEvent{
		BaseEvent: t.base(sessionId, eventSession),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
		Language:  r.Header.Get("Accept-Language"),
	})
}

func (t *RabbitTracking) TrackSearch(sessionId uint32, criteria *types.Criteria, resultCount int, nearbyFallback bool) error {
	return t.send(SearchEvent{
		BaseEvent:      t.base(sessionId, eventSearch),
		Criteria:       criteria,
		ResultCount:    resultCount,
		NearbyFallback: nearbyFallback,
	})
}

func (t *RabbitTracking) TrackImpression(sessionId uint32, instructorId string, position float32) error {
	return t.send(ImpressionEvent{
		BaseEvent:    t.base(sessionId, eventImpression),
		InstructorId: instructorId,
		Position:     position,
	})
}

func (t *RabbitTracking) TrackEnquiry(sessionId uint32, instructorId string) error {
	return t.send(EnquiryEvent{
		BaseEvent:    t.base(sessionId, eventEnquiry),
		InstructorId: instructorId,
	})
}

func (t *RabbitTracking) TrackBooking(sessionId uint32, instructorId string, hours int) error {
	return t.send(BookingEvent{
		BaseEvent:    t.base(sessionId, eventBooking),
		InstructorId: instructorId,
		Hours:        hours,
	})
}
