package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/observ"
)

const (
	entityClient = "client"

	msgClientNotFound = "Client not found"
)

// ClientStore keeps the client collection in memory. It is the only writer
// of that collection; callers always get copies.
type ClientStore struct {
	mu      sync.RWMutex
	clients []models.Client

	latency Latency
	clock   clock
	metrics *observ.Metrics
	newTok  func() string
}

type Option func(*options)

type options struct {
	latency Latency
	now     func() time.Time
	metrics *observ.Metrics
	token   func() string
}

// WithLatency sets the simulated latency. The default scale is 1.
func WithLatency(l Latency) Option { return func(o *options) { o.latency = l } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithMetrics(m *observ.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithTokenSource replaces the portal token generator. Only the client
// store uses it.
func WithTokenSource(f func() string) Option { return func(o *options) { o.token = f } }

func buildOptions(opts []Option) options {
	o := options{
		latency: Latency{Scale: 1},
		now:     time.Now,
		token:   newPortalToken,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClientStore returns a store seeded with copies of seed, in order.
func NewClientStore(seed []models.Client, opts ...Option) *ClientStore {
	o := buildOptions(opts)
	clients := make([]models.Client, 0, len(seed))
	for _, c := range seed {
		clients = append(clients, c.Clone())
	}
	return &ClientStore{
		clients: clients,
		latency: o.latency,
		clock:   clock{now: o.now},
		metrics: o.metrics,
		newTok:  o.token,
	}
}

// newPortalToken returns "client-" followed by nine random characters.
func newPortalToken() string {
	return "client-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

func (s *ClientStore) GetAll(ctx context.Context) (out []models.Client, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityClient, "getAll", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyGetAll); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out = make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *ClientStore) GetByID(ctx context.Context, id int64) (c *models.Client, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityClient, "getById", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyGetByID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperr.NotFound(msgClientNotFound)
	}
	cp := s.clients[i].Clone()
	return &cp, nil
}

func (s *ClientStore) Create(ctx context.Context, c models.Client) (created *models.Client, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityClient, "create", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyCreate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nc := c.Clone()
	nc.ID = s.nextID()
	nc.PortalLink = "portal/" + s.uniqueToken()
	nc.ActiveApplicationID = nil
	nc.CreatedAt = s.clock.stamp()
	s.clients = append(s.clients, nc)

	cp := nc.Clone()
	return &cp, nil
}

func (s *ClientStore) Update(ctx context.Context, id int64, patch models.ClientPatch) (updated *models.Client, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityClient, "update", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyUpdate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperr.NotFound(msgClientNotFound)
	}
	c := &s.clients[i]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	cp := c.Clone()
	return &cp, nil
}

func (s *ClientStore) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityClient, "delete", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyDelete); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return apperr.NotFound(msgClientNotFound)
	}
	s.clients = append(s.clients[:i], s.clients[i+1:]...)
	return nil
}

// SetActiveApplication is bookkeeping done on behalf of the application
// store, so it skips the simulated latency.
func (s *ClientStore) SetActiveApplication(ctx context.Context, id int64, applicationID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return apperr.NotFound(msgClientNotFound)
	}
	s.clients[i].ActiveApplicationID = &applicationID
	return nil
}

func (s *ClientStore) indexOf(id int64) int {
	for i := range s.clients {
		if s.clients[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID is max(existing)+1, or 1 for an empty collection. Caller holds mu.
func (s *ClientStore) nextID() int64 {
	var highest int64
	for _, c := range s.clients {
		if c.ID > highest {
			highest = c.ID
		}
	}
	return highest + 1
}

// uniqueToken re-rolls until no existing link contains the token, so a new
// token can never be matched by another client's link. Caller holds mu.
func (s *ClientStore) uniqueToken() string {
	for {
		tok := s.newTok()
		taken := false
		for _, c := range s.clients {
			if strings.Contains(c.PortalLink, tok) {
				taken = true
				break
			}
		}
		if !taken {
			return tok
		}
	}
}
