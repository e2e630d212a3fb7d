package relay

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"irrigation-monitor/backend/pkg/livefeed"
	"irrigation-monitor/web"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 0 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

type recordingFeed struct {
	mu     sync.Mutex
	events []Update
}

func (f *recordingFeed) Broadcast(name string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == UpdateEvent {
		f.events = append(f.events, data.(Update))
	}
}

const topic = "sensors/drone01/altitude"

func newTestRelay(t *testing.T) *Relay {
	t.Helper()

	pages, err := web.NewPages()
	require.NoError(t, err)

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), topic, pages)
}

func TestLatestStartsAtInitialValue(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t)
	assert.Equal(t, InitialValue, r.Latest())
	assert.Equal(t, &livefeed.Event{Name: UpdateEvent, Data: Update{Topic: topic, Payload: "0.0"}}, r.Welcome())
}

func TestHandleMessageStoresAndForwards(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t)
	feed := &recordingFeed{}
	r.SetFeed(feed)

	r.handleMessage(nil, message{topic: topic, payload: []byte("120.5")})
	r.handleMessage(nil, message{topic: topic, payload: []byte("121.0")})

	assert.Equal(t, "121.0", r.Latest())
	assert.Equal(t, []Update{
		{Topic: topic, Payload: "120.5"},
		{Topic: topic, Payload: "121.0"},
	}, feed.events)
}

func TestPageShowsLatestValue(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t)
	r.handleMessage(nil, message{topic: topic, payload: []byte("88.8")})

	mux := chi.NewRouter()
	r.RegisterPages(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span id="altitude">88.8</span>`)
	assert.Contains(t, rec.Body.String(), topic)
}

func TestBrowserReceivesWelcomeAndUpdates(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t)
	r.handleMessage(nil, message{topic: topic, payload: []byte("10.0")})

	hub := livefeed.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), livefeed.HubOptions{Welcome: r.Welcome})
	r.SetFeed(hub)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	read := func() livefeed.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var ev struct {
			Name string `json:"event"`
			Data Update `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&ev))

		return livefeed.Event{Name: ev.Name, Data: ev.Data}
	}

	assert.Equal(t, livefeed.Event{Name: UpdateEvent, Data: Update{Topic: topic, Payload: "10.0"}}, read())

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	r.handleMessage(nil, message{topic: topic, payload: []byte("11.5")})
	assert.Equal(t, livefeed.Event{Name: UpdateEvent, Data: Update{Topic: topic, Payload: "11.5"}}, read())
}
