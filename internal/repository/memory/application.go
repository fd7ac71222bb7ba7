package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/observ"
)

const (
	entityApplication = "application"

	msgApplicationNotFound = "Application not found"
	msgDocumentNotFound    = "Document not found"
)

// ActiveApplicationSetter records which application a client is working on.
// The client store implements it.
type ActiveApplicationSetter interface {
	SetActiveApplication(ctx context.Context, clientID int64, applicationID int64) error
}

// ApplicationStore keeps the application collection in memory. It is the
// only writer of that collection; callers always get deep copies.
type ApplicationStore struct {
	mu           sync.RWMutex
	applications []models.Application

	owners  ActiveApplicationSetter
	latency Latency
	clock   clock
	metrics *observ.Metrics
}

// NewApplicationStore returns a store seeded with copies of seed, in order.
// owners may be nil, in which case no client is told about new applications.
func NewApplicationStore(seed []models.Application, owners ActiveApplicationSetter, opts ...Option) *ApplicationStore {
	o := buildOptions(opts)
	apps := make([]models.Application, 0, len(seed))
	for _, a := range seed {
		apps = append(apps, a.Clone())
	}
	return &ApplicationStore{
		applications: apps,
		owners:       owners,
		latency:      o.latency,
		clock:        clock{now: o.now},
		metrics:      o.metrics,
	}
}

func (s *ApplicationStore) GetAll(ctx context.Context) (out []models.Application, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, "getAll", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyGetAll); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out = make([]models.Application, 0, len(s.applications))
	for _, a := range s.applications {
		out = append(out, a.Clone())
	}
	return out, nil
}

func (s *ApplicationStore) GetByID(ctx context.Context, id int64) (app *models.Application, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, "getById", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyGetByID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}
	cp := s.applications[i].Clone()
	return &cp, nil
}

func (s *ApplicationStore) GetByClientID(ctx context.Context, clientID int64) (out []models.Application, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, "getByClientId", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyGetByClientID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out = make([]models.Application, 0)
	for _, a := range s.applications {
		if a.ClientID == clientID {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *ApplicationStore) Create(ctx context.Context, a models.Application) (created *models.Application, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, "create", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyCreate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	na := a.Clone()
	na.ID = s.nextID()
	na.Status = models.StatusNew
	na.CreatedAt = s.clock.stamp()
	na.UpdatedAt = na.CreatedAt
	s.applications = append(s.applications, na)
	cp := na.Clone()
	s.mu.Unlock()

	// The application is committed. Recording it on the client is best
	// effort: the client may not exist, and a cancelled ctx must not turn
	// the create into a reported failure.
	if s.owners != nil {
		_ = s.owners.SetActiveApplication(context.WithoutCancel(ctx), cp.ClientID, cp.ID)
	}
	return &cp, nil
}

func (s *ApplicationStore) Update(ctx context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error) {
	return s.mutate(ctx, "update", latencyUpdate, id, func(a *models.Application) error {
		if patch.ClientID != nil {
			a.ClientID = *patch.ClientID
		}
		if patch.VisaType != nil {
			a.VisaType = *patch.VisaType
		}
		if patch.Status != nil {
			a.Status = *patch.Status
		}
		if patch.FormData != nil {
			a.FormData = *patch.FormData
		}
		if patch.Documents != nil {
			a.Documents = append(make([]models.Document, 0, len(patch.Documents)), patch.Documents...)
		}
		return nil
	})
}

func (s *ApplicationStore) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Application, error) {
	return s.mutate(ctx, "updateStatus", latencyUpdateStatus, id, func(a *models.Application) error {
		a.Status = status
		return nil
	})
}

func (s *ApplicationStore) AddMessage(ctx context.Context, id int64, msg models.Message) (*models.Application, error) {
	return s.mutate(ctx, "addMessage", latencyAddMessage, id, func(a *models.Application) error {
		msg.ID = int64(len(a.Messages)) + 1
		msg.Timestamp = s.clock.stamp()
		a.Messages = append(a.Messages, msg)
		return nil
	})
}

func (s *ApplicationStore) AddDocument(ctx context.Context, id int64, doc models.Document) (*models.Application, error) {
	return s.mutate(ctx, "addDocument", latencyDocument, id, func(a *models.Application) error {
		var highest int64
		for _, d := range a.Documents {
			if d.ID > highest {
				highest = d.ID
			}
		}
		doc.ID = highest + 1
		doc.UploadedAt = s.clock.stamp()
		a.Documents = append(a.Documents, doc)
		return nil
	})
}

func (s *ApplicationStore) RemoveDocument(ctx context.Context, id int64, documentID int64) (*models.Application, error) {
	return s.mutate(ctx, "removeDocument", latencyDocument, id, func(a *models.Application) error {
		for i, d := range a.Documents {
			if d.ID == documentID {
				docs := make([]models.Document, 0, len(a.Documents)-1)
				docs = append(docs, a.Documents[:i]...)
				a.Documents = append(docs, a.Documents[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound(msgDocumentNotFound)
	})
}

func (s *ApplicationStore) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, "delete", start, err) }(time.Now())
	if err := s.latency.wait(ctx, latencyDelete); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return apperr.NotFound(msgApplicationNotFound)
	}
	s.applications = append(s.applications[:i], s.applications[i+1:]...)
	return nil
}

// mutate runs fn on a working copy of application id and commits it with a
// fresh updatedAt only if fn succeeds, so a failed change leaves the stored
// entity as it was.
func (s *ApplicationStore) mutate(ctx context.Context, op string, latency time.Duration, id int64, fn func(*models.Application) error) (out *models.Application, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(entityApplication, op, start, err) }(time.Now())
	if err := s.latency.wait(ctx, latency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}
	work := s.applications[i].Clone()
	if err := fn(&work); err != nil {
		return nil, err
	}
	work.UpdatedAt = s.clock.after(s.applications[i].UpdatedAt)
	s.applications[i] = work

	cp := work.Clone()
	return &cp, nil
}

func (s *ApplicationStore) indexOf(id int64) int {
	for i := range s.applications {
		if s.applications[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID is max(existing)+1, or 1 for an empty collection. Caller holds mu.
func (s *ApplicationStore) nextID() int64 {
	var highest int64
	for _, a := range s.applications {
		if a.ID > highest {
			highest = a.ID
		}
	}
	return highest + 1
}
