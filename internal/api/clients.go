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

// ClientHandler serves the agent-facing client pages.
type ClientHandler struct {
	clients repository.ClientRepository
	apps    repository.ApplicationRepository
	events  events.Publisher
	logger  *zap.Logger
}

func NewClientHandler(clients repository.ClientRepository, apps repository.ApplicationRepository, pub events.Publisher, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, apps: apps, events: pub, logger: logger}
}

// createClientRequest is the body for POST /v1/clients. Id, portal link
// and timestamps are assigned by the store and cannot be sent. The email
// is checked with workflow.IsEmail, the same rule Update applies.
type createClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// List handles GET /v1/clients?search=
func (h *ClientHandler) List(c *gin.Context) {
	view := cache.NewClients(h.clients).Mount(c.Request.Context())
	if msg := view.Err(); msg != "" {
		respondLoadError(c, h.logger, msg)
		return
	}
	c.JSON(http.StatusOK, view.Search(c.Query("search")))
}

// Create handles POST /v1/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !h.checkEmail(c, req.Email, "Failed to create client") {
		return
	}

	created, err := h.clients.Create(c.Request.Context(), models.Client{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create client")
		return
	}

	h.logger.Info("client created", zap.Int64("client_id", created.ID), zap.String("portal_link", created.PortalLink))
	h.events.Publish(c.Request.Context(), events.ForClient(events.ClientCreated, created))
	c.JSON(http.StatusCreated, created)
}

// GetByID handles GET /v1/clients/:id
func (h *ClientHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// Update handles PUT /v1/clients/:id. Absent fields are left as they are.
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.ClientPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	if patch.Email != nil && !h.checkEmail(c, *patch.Email, "Failed to update client") {
		return
	}

	updated, err := h.clients.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update client")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForClient(events.ClientUpdated, updated))
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/clients/:id. The client's applications are
// kept.
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete client")
		return
	}
	h.events.Publish(c.Request.Context(), events.ForClient(events.ClientDeleted, &models.Client{ID: id}))
	c.Status(http.StatusNoContent)
}

// Applications handles GET /v1/clients/:id/applications
func (h *ClientHandler) Applications(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.clients.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to load client")
		return
	}
	apps, err := h.apps.GetByClientID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load applications")
		return
	}
	c.JSON(http.StatusOK, apps)
}

// checkEmail writes a 400 and returns false when email is not an address.
func (h *ClientHandler) checkEmail(c *gin.Context, email, fallback string) bool {
	if workflow.IsEmail(email) {
		return true
	}
	respondError(c, h.logger, apperr.Validation("Please enter a valid email", map[string]string{"email": "invalid email"}), fallback)
	return false
}
