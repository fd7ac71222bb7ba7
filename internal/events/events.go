// Package events carries change notifications for clients and applications
// to anyone listening on the websocket stream. Events are advisory: nothing
// in the service reads its own state back from them.
package events

import (
	"context"
	"time"

	"github.com/lalith-99/visaflow/internal/models"
)

type Type string

const (
	ClientCreated Type = "client.created"
	ClientUpdated Type = "client.updated"
	ClientDeleted Type = "client.deleted"

	ApplicationCreated         Type = "application.created"
	ApplicationUpdated         Type = "application.updated"
	ApplicationDeleted         Type = "application.deleted"
	ApplicationStatusChanged   Type = "application.status_changed"
	ApplicationMessageAdded    Type = "application.message_added"
	ApplicationDocumentAdded   Type = "application.document_added"
	ApplicationDocumentRemoved Type = "application.document_removed"
)

type Event struct {
	Type          Type          `json:"type"`
	ClientID      int64         `json:"clientId,omitempty"`
	ApplicationID int64         `json:"applicationId,omitempty"`
	Status        models.Status `json:"status,omitempty"`
	At            time.Time     `json:"at"`
}

// Publisher sends an event on. Failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// ForClient builds an event about client c.
func ForClient(t Type, c *models.Client) Event {
	return Event{Type: t, ClientID: c.ID, At: time.Now().UTC()}
}

// ForApplication builds an event about application a.
func ForApplication(t Type, a *models.Application) Event {
	return Event{
		Type:          t,
		ClientID:      a.ClientID,
		ApplicationID: a.ID,
		Status:        a.Status,
		At:            time.Now().UTC(),
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
