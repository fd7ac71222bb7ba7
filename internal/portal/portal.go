// Package portal resolves a client's self-service link to their client
// record and active application, and drives the three-step application
// flow (pick a visa, fill in the form, submit).
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/config"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/repository"
	"github.com/lalith-99/visaflow/internal/workflow"
)

// Session is what the portal knows about a token: the client, the
// application being worked on (nil before one exists) and the step to show.
type Session struct {
	Client      models.Client       `json:"client"`
	Application *models.Application `json:"application"`
	Step        workflow.Step       `json:"step"`
	StepName    string              `json:"stepName"`
	VisaType    models.VisaType     `json:"visaType,omitempty"`

	// Created is set by Save and Submit when they created the application.
	Created bool `json:"-"`
}

// Draft is the client's input for Save and Submit. VisaType may be empty
// when the client already has an application.
type Draft struct {
	VisaType  models.VisaType   `json:"visaType"`
	FormData  models.FormData   `json:"formData"`
	Documents []models.Document `json:"documents"`
}

type Resolver struct {
	clients repository.ClientRepository
	apps    repository.ApplicationRepository
	match   string
	logger  *zap.Logger
}

// NewResolver returns a resolver using the given match mode
// (config.PortalMatchSubstring or config.PortalMatchExact).
func NewResolver(clients repository.ClientRepository, apps repository.ApplicationRepository, match string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{clients: clients, apps: apps, match: match, logger: logger}
}

// Resolve finds the client owning token and their active application.
//
// In substring mode the first client, in store order, whose portal link
// contains the token wins. A token that is a substring of two links
// resolves to the earlier client.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Session, error) {
	client, err := r.findClient(ctx, token)
	if err != nil {
		return nil, err
	}
	app, err := r.activeApplication(ctx, client)
	if err != nil {
		return nil, err
	}
	return newSession(*client, app, workflow.StepFor(app)), nil
}

// SelectVisa moves a client without an application to the form step for
// visaType. Nothing is stored until the form is saved.
func (r *Resolver) SelectVisa(ctx context.Context, token string, visaType string) (*Session, error) {
	vt, err := workflow.ParseVisaType(visaType)
	if err != nil {
		return nil, err
	}
	s, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	s.VisaType = vt
	s.Step = workflow.StepCompleteForm
	s.StepName = s.Step.String()
	return s, nil
}

// Save stores the draft. An existing application gets the form, the
// documents and the In Review status; otherwise a new application is
// created for the client with the draft's visa type. Applications already
// Ready to Submit or Submitted are rejected with a validation error.
func (r *Resolver) Save(ctx context.Context, token string, d Draft) (*Session, error) {
	s, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := editable(s); err != nil {
		return nil, err
	}
	vt, err := r.visaTypeFor(s, d)
	if err != nil {
		return nil, err
	}
	d.VisaType = vt

	s, err = r.save(ctx, s, d, models.StatusInReview)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to save application")
	}
	s.Step = workflow.StepCompleteForm
	s.StepName = s.Step.String()
	return s, nil
}

// Submit validates the form and then saves it as Ready to Submit.
func (r *Resolver) Submit(ctx context.Context, token string, d Draft) (*Session, error) {
	s, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := editable(s); err != nil {
		return nil, err
	}
	vt, err := r.visaTypeFor(s, d)
	if err != nil {
		return nil, err
	}
	if err := workflow.ValidateForm(vt, d.FormData); err != nil {
		return nil, err
	}
	d.VisaType = vt

	s, err = r.save(ctx, s, d, models.StatusReadyToSubmit)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to submit application")
	}
	s.Step = workflow.StepSubmitted
	s.StepName = s.Step.String()
	return s, nil
}

// save writes d for the resolved session s. d.VisaType is already checked.
func (r *Resolver) save(ctx context.Context, s *Session, d Draft, status models.Status) (*Session, error) {
	docs := d.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	form := d.FormData

	var (
		app *models.Application
		err error
	)
	if s.Application != nil {
		app, err = r.apps.Update(ctx, s.Application.ID, models.ApplicationPatch{
			FormData:  &form,
			Documents: docs,
			Status:    &status,
		})
	} else {
		app, err = r.apps.Create(ctx, models.Application{
			ClientID:  s.Client.ID,
			VisaType:  d.VisaType,
			FormData:  form,
			Documents: docs,
		})
		// New applications always start as New; a submit moves it on so
		// the stored status matches the step the client is shown.
		if err == nil && status == models.StatusReadyToSubmit {
			app, err = r.apps.UpdateStatus(ctx, app.ID, status)
		}
	}
	if err != nil {
		return nil, err
	}
	created := s.Application == nil

	r.logger.Info("portal application saved",
		zap.Int64("client_id", s.Client.ID),
		zap.Int64("application_id", app.ID),
		zap.String("status", string(app.Status)),
		zap.Bool("created", created),
	)
	out := newSession(s.Client, app, workflow.StepFor(app))
	out.Created = created
	return out, nil
}

// editable rejects portal writes once the application has been marked
// Ready to Submit or Submitted. Those move only through agent actions.
func editable(s *Session) error {
	if s.Application == nil || workflow.CanTransition(s.Application.Status, models.StatusInReview) {
		return nil
	}
	return apperr.Validation(
		fmt.Sprintf("Application is %s and can no longer be changed", s.Application.Status),
		map[string]string{"status": string(s.Application.Status)},
	)
}

func (r *Resolver) visaTypeFor(s *Session, d Draft) (models.VisaType, error) {
	if s.Application != nil {
		return s.Application.VisaType, nil
	}
	if d.VisaType == "" {
		return "", apperr.Validation("Please select a visa type", map[string]string{"visaType": "visa type is required"})
	}
	return workflow.ParseVisaType(string(d.VisaType))
}

func (r *Resolver) findClient(ctx context.Context, token string) (*models.Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.PortalNotFound(token)
	}
	clients, err := r.clients.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if r.matches(clients[i].PortalLink, token) {
			return &clients[i], nil
		}
	}
	r.logger.Debug("portal token not found", zap.String("token", token))
	return nil, apperr.PortalNotFound(token)
}

func (r *Resolver) matches(link, token string) bool {
	if r.match == config.PortalMatchExact {
		return link[strings.LastIndex(link, "/")+1:] == token
	}
	return strings.Contains(link, token)
}

// activeApplication prefers the client's recorded active application and
// falls back to the last one the store holds for the client, which is all
// that seeded data provides.
func (r *Resolver) activeApplication(ctx context.Context, c *models.Client) (*models.Application, error) {
	if c.ActiveApplicationID != nil {
		app, err := r.apps.GetByID(ctx, *c.ActiveApplicationID)
		switch {
		case err == nil && app.ClientID == c.ID:
			return app, nil
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	apps, err := r.apps.GetByClientID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, nil
	}
	last := apps[len(apps)-1]
	return &last, nil
}

func newSession(c models.Client, app *models.Application, step workflow.Step) *Session {
	s := &Session{Client: c, Application: app, Step: step, StepName: step.String()}
	if app != nil {
		s.VisaType = app.VisaType
	}
	return s
}
