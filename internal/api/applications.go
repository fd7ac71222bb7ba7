package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/cache"
	"github.com/lalith-99/visaflow/internal/events"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/repository"
	"github.com/lalith-99/visaflow/internal/workflow"
)

type ApplicationHandler struct {
	apps    repository.ApplicationRepository
	clients repository.ClientRepository
	events  events.Publisher
	logger  *zap.Logger
}

func NewApplicationHandler(apps repository.ApplicationRepository, clients repository.ClientRepository, pub events.Publisher, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, clients: clients, events: pub, logger: logger}
}

type createApplicationRequest struct {
	ClientID  int64             `json:"clientId" binding:"required,min=1"`
	VisaType  string            `json:"visaType" binding:"required"`
	FormData  models.FormData   `json:"formData"`
	Documents []models.Document `json:"documents"`
}

type updateStatusRequest struct {
	Status models.Status `json:"status" binding:"required"`
}

type addMessageRequest struct {
	Sender  string `json:"sender" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type addDocumentRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type listApplicationsResponse struct {
	Applications []models.Application `json:"applications"`
	Total        int                  `json:"total"`
}

// applicationDetail is the application page: the application, its client
// (nil when the client has been deleted) and the status actions offered.
type applicationDetail struct {
	models.Application
	Client       *models.Client  `json:"client"`
	NextStatuses []models.Status `json:"nextStatuses"`
}

// List handles GET /v1/applications?search=&filter=
//
// search matches the client's name or the visa type; filter is one of
// all, new, review, info, ready, submitted.
func (h *ApplicationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	apps := cache.NewApplications(h.apps).Mount(ctx)
	if msg := apps.Err(); msg != "" {
		respondLoadError(c, h.logger, msg)
		return
	}
	clients := cache.NewClients(h.clients).Mount(ctx)
	if msg := clients.Err(); msg != "" {
		respondLoadError(c, h.logger, msg)
		return
	}

	filtered, err := apps.Filter(c.Query("search"), c.Query("filter"), clients.Names())
	if err != nil {
		respondError(c, h.logger, err, "Failed to filter applications")
		return
	}
	c.JSON(http.StatusOK, listApplicationsResponse{Applications: filtered, Total: len(filtered)})
}

// Create handles POST /v1/applications. The new application always starts
// as New.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	visaType, err := workflow.ParseVisaType(req.VisaType)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create application")
		return
	}
	if _, err := h.clients.GetByID(c.Request.Context(), req.ClientID); err != nil {
		respondError(c, h.logger, err, "Failed to create application")
		return
	}

	created, err := h.apps.Create(c.Request.Context(), models.Application{
		ClientID:  req.ClientID,
		VisaType:  visaType,
		FormData:  req.FormData,
		Documents: req.Documents,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create application")
		return
	}

	h.logger.Info("application created",
		zap.Int64("application_id", created.ID),
		zap.Int64("client_id", created.ClientID),
		zap.String("visa_type", string(created.VisaType)),
	)
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationCreated, created))
	c.JSON(http.StatusCreated, created)
}

// GetByID handles GET /v1/applications/:id
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.apps.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load application")
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), app.ClientID)
	if err != nil && !isNotFound(err) {
		respondError(c, h.logger, err, "Failed to load client")
		return
	}

	c.JSON(http.StatusOK, applicationDetail{
		Application:  *app,
		Client:       client,
		NextStatuses: workflow.Next(app.Status),
	})
}

// Update handles PUT /v1/applications/:id. The status, when present, is
// only checked for being a known one; agent status actions go through
// UpdateStatus.
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.ApplicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	if patch.VisaType != nil {
		if _, err := workflow.ParseVisaType(string(*patch.VisaType)); err != nil {
			respondError(c, h.logger, err, "Failed to update application")
			return
		}
	}
	if patch.Status != nil && !workflow.IsValid(*patch.Status) {
		respondError(c, h.logger, apperr.Validation("Unknown status", map[string]string{"status": "unknown status"}), "Failed to update application")
		return
	}

	updated, err := h.apps.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update application")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationUpdated, updated))
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.apps.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete application")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationDeleted, &models.Application{ID: id}))
	c.Status(http.StatusNoContent)
}

// UpdateStatus handles PATCH /v1/applications/:id/status, the agent's
// status actions. Only moves allowed by the workflow are accepted.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	current, err := h.apps.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update application status")
		return
	}
	if err := workflow.ValidateTransition(current.Status, req.Status); err != nil {
		respondError(c, h.logger, err, "Failed to update application status")
		return
	}

	updated, err := h.apps.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update application status")
		return
	}

	h.logger.Info("application status changed",
		zap.Int64("application_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationStatusChanged, updated))
	c.JSON(http.StatusOK, updated)
}

// AddMessage handles POST /v1/applications/:id/messages
func (h *ApplicationHandler) AddMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.apps.AddMessage(c.Request.Context(), id, models.Message{
		Sender:  req.Sender,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to add message")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationMessageAdded, updated))
	c.JSON(http.StatusCreated, updated)
}

// AddDocument handles POST /v1/applications/:id/documents. Only the
// document's metadata is stored.
func (h *ApplicationHandler) AddDocument(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req addDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.apps.AddDocument(c.Request.Context(), id, models.Document{Name: req.Name, Type: req.Type, URL: req.URL})
	if err != nil {
		respondError(c, h.logger, err, "Failed to add document")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationDocumentAdded, updated))
	c.JSON(http.StatusCreated, updated)
}

// RemoveDocument handles DELETE /v1/applications/:id/documents/:docId
func (h *ApplicationHandler) RemoveDocument(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	docID, ok := paramID(c, "docId")
	if !ok {
		return
	}

	updated, err := h.apps.RemoveDocument(c.Request.Context(), id, docID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to remove document")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationDocumentRemoved, updated))
	c.JSON(http.StatusOK, updated)
}
