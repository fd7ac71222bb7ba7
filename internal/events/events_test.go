package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/observ"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestForApplication(t *testing.T) {
	e := ForApplication(ApplicationStatusChanged, &models.Application{ID: 7, ClientID: 3, Status: models.StatusInReview})

	assert.Equal(t, ApplicationStatusChanged, e.Type)
	assert.Equal(t, int64(7), e.ApplicationID)
	assert.Equal(t, int64(3), e.ClientID)
	assert.Equal(t, models.StatusInReview, e.Status)
	assert.False(t, e.At.IsZero())
}

func TestHub_FansOutToEverySubscriber(t *testing.T) {
	metrics := observ.NewMetrics(prometheus.NewRegistry())
	hub := NewHub(nil, metrics)

	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(context.Background(), Event{Type: ClientCreated, ClientID: 6})

	assert.Equal(t, int64(6), receive(t, a).ClientID)
	assert.Equal(t, int64(6), receive(t, b).ClientID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(ClientCreated))))
}

func TestHub_CancelReleasesSubscriber(t *testing.T) {
	hub := NewHub(nil, nil)
	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()

	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-ch
	assert.False(t, open)
	assert.NotPanics(t, func() { hub.Publish(context.Background(), Event{Type: ClientDeleted}) })
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil)
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(context.Background(), Event{Type: ApplicationUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHub_StreamsOverWebsocket(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), Event{Type: ApplicationMessageAdded, ApplicationID: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, ApplicationMessageAdded, got.Type)
	assert.Equal(t, int64(2), got.ApplicationID)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRedisBus_RelaysIntoHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(nil, nil)
	bus := NewRedisBus(client, "", hub, nil)

	stop, err := bus.Start(context.Background())
	require.NoError(t, err)
	defer stop()

	ch, cancel := hub.Subscribe()
	defer cancel()

	bus.Publish(context.Background(), Event{Type: ApplicationCreated, ApplicationID: 11, ClientID: 5})

	got := receive(t, ch)
	assert.Equal(t, ApplicationCreated, got.Type)
	assert.Equal(t, int64(11), got.ApplicationID)
}

func TestRedisBus_FallsBackToLocalDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	hub := NewHub(nil, nil)
	bus := NewRedisBus(client, DefaultChannel, hub, nil)
	ch, cancel := hub.Subscribe()
	defer cancel()

	mr.Close()
	bus.Publish(context.Background(), Event{Type: ClientUpdated, ClientID: 2})

	assert.Equal(t, ClientUpdated, receive(t, ch).Type)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
