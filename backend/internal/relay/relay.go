package relay

import (
	"log/slog"
	"net/http"
	"sync"

	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/pkg/livefeed"
	"irrigation-monitor/backend/pkg/mqtt"
	"irrigation-monitor/web"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// UpdateEvent is the WebSocket event carrying a new value.
	UpdateEvent = "update_data"
	// InitialValue is shown until the first message arrives.
	InitialValue = "0.0"

	OperationAltitude = "subscribeAltitude"
)

// Update is the payload of UpdateEvent.
type Update struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// Broadcaster pushes events to connected browsers.
type Broadcaster interface {
	Broadcast(name string, data any)
}

// PageData is the relay page view model.
type PageData struct {
	Title       string
	InitialData string
	Topic       string
}

// Relay keeps the latest value seen on one topic and forwards every message to browsers.
type Relay struct {
	l     *slog.Logger
	topic string
	feed  Broadcaster
	pages *web.Pages

	mu     sync.RWMutex
	latest string
}

func New(l *slog.Logger, topic string, pages *web.Pages) *Relay {
	return &Relay{
		l:      l.With(slog.String("component", "relay"), slog.String("topic", topic)),
		topic:  topic,
		pages:  pages,
		latest: InitialValue,
	}
}

// SetFeed sets where updates are pushed. The hub needs Welcome, so it is built after the relay.
func (r *Relay) SetFeed(feed Broadcaster) {
	r.feed = feed
}

// Latest returns the most recent payload, or InitialValue.
func (r *Relay) Latest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.latest
}

// Welcome replays the current value to a newly connected browser.
func (r *Relay) Welcome() *livefeed.Event {
	return &livefeed.Event{Name: UpdateEvent, Data: Update{Topic: r.topic, Payload: r.Latest()}}
}

// RegisterSubscribe registers the altitude subscription.
func (r *Relay) RegisterSubscribe(mb *mqtt.MQTTBuilder) {
	mb.MustRegisterSubscribe(r.topic, mqtt.SubscriptionSpec{
		OperationID: OperationAltitude,
		Summary:     "Receive altitude",
		Description: "Plain-text altitude published by the drone. The latest value is kept and pushed to browsers.",
		Group:       "Relay",
		MessageType: new(string),
		Handler:     r.handleMessage,
		QoS:         mqtt.QoSAtMostOnce,
		Examples: map[string]any{
			"altitude": "120.5",
		},
	})
}

func (r *Relay) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	payload := string(msg.Payload())

	r.mu.Lock()
	r.latest = payload
	r.mu.Unlock()

	r.l.Debug("value received", slog.String("payload", payload))

	if r.feed != nil {
		r.feed.Broadcast(UpdateEvent, Update{Topic: msg.Topic(), Payload: payload})
	}
}

// Page renders the index page with the current value.
func (r *Relay) Page(w http.ResponseWriter, _ *http.Request) error {
	return r.pages.Render(w, http.StatusOK, web.PageRelay, PageData{
		Title:       "Altitude",
		InitialData: r.Latest(),
		Topic:       r.topic,
	})
}

// RegisterPages mounts the index page.
func (r *Relay) RegisterPages(mux web.Router) {
	mux.HandleFunc("/", apicommon.ErrorHandler(r.Page))
}
