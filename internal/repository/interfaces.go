package repository

import (
	"context"

	"github.com/lalith-99/visaflow/internal/models"
)

// Every method takes ctx first and may block for the store's simulated
// latency; a cancelled ctx ends the wait early with ctx.Err().
//
// Values passed in and returned are copies. Mutating a returned entity never
// changes what the store holds.
//
// Lookups by an unknown id fail with an apperr NOT_FOUND error and leave the
// collection untouched.

// ClientRepository is the client entity store.
type ClientRepository interface {
	// GetAll returns every client in insertion order. Empty slice, not nil.
	GetAll(ctx context.Context) ([]models.Client, error)

	GetByID(ctx context.Context, id int64) (*models.Client, error)

	// Create stores c with a fresh Id, createdAt and portal link. Any Id,
	// CreatedAt, PortalLink or ActiveApplicationID on c is ignored.
	Create(ctx context.Context, c models.Client) (*models.Client, error)

	// Update merges the non-nil fields of patch into the client.
	Update(ctx context.Context, id int64, patch models.ClientPatch) (*models.Client, error)

	Delete(ctx context.Context, id int64) error

	// SetActiveApplication points the client at its current application.
	SetActiveApplication(ctx context.Context, id int64, applicationID int64) error
}

// ApplicationRepository is the application entity store.
type ApplicationRepository interface {
	GetAll(ctx context.Context) ([]models.Application, error)

	GetByID(ctx context.Context, id int64) (*models.Application, error)

	// GetByClientID returns the client's applications in insertion order.
	GetByClientID(ctx context.Context, clientID int64) ([]models.Application, error)

	// Create stores a with a fresh Id and timestamps. Status is always New.
	Create(ctx context.Context, a models.Application) (*models.Application, error)

	// Update merges patch into the application and refreshes updatedAt.
	Update(ctx context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error)

	// UpdateStatus overwrites the status. Workflow rules are the caller's
	// concern.
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Application, error)

	// AddMessage appends msg with Id = len(messages)+1 and a fresh timestamp.
	AddMessage(ctx context.Context, id int64, msg models.Message) (*models.Application, error)

	// AddDocument appends doc with Id = max(document Ids)+1.
	AddDocument(ctx context.Context, id int64, doc models.Document) (*models.Application, error)

	RemoveDocument(ctx context.Context, id int64, documentID int64) (*models.Application, error)

	Delete(ctx context.Context, id int64) error
}
