package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/events"
	"github.com/lalith-99/visaflow/internal/portal"
)

// PortalHandler serves the client self-service portal. Requests are keyed
// by the token from the client's portal link, not by ids.
type PortalHandler struct {
	resolver *portal.Resolver
	events   events.Publisher
	logger   *zap.Logger
}

func NewPortalHandler(resolver *portal.Resolver, pub events.Publisher, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{resolver: resolver, events: pub, logger: logger}
}

type selectVisaRequest struct {
	VisaType string `json:"visaType" binding:"required"`
}

// Get handles GET /v1/portal/:token
func (h *PortalHandler) Get(c *gin.Context) {
	s, err := h.resolver.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load portal")
		return
	}
	c.JSON(http.StatusOK, s)
}

// SelectVisa handles POST /v1/portal/:token/visa
func (h *PortalHandler) SelectVisa(c *gin.Context) {
	var req selectVisaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.resolver.SelectVisa(c.Request.Context(), c.Param("token"), req.VisaType)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load portal")
		return
	}
	c.JSON(http.StatusOK, s)
}

// Save handles PUT /v1/portal/:token/application (save draft).
func (h *PortalHandler) Save(c *gin.Context) {
	var d portal.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.resolver.Save(c.Request.Context(), c.Param("token"), d)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save application")
		return
	}
	h.publish(c, s, events.ApplicationUpdated)
	c.JSON(http.StatusOK, s)
}

// Submit handles POST /v1/portal/:token/application/submit
func (h *PortalHandler) Submit(c *gin.Context) {
	var d portal.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		respondBindError(c, err)
		return
	}
	s, err := h.resolver.Submit(c.Request.Context(), c.Param("token"), d)
	if err != nil {
		respondError(c, h.logger, err, "Failed to submit application")
		return
	}
	h.publish(c, s, events.ApplicationStatusChanged)
	c.JSON(http.StatusOK, s)
}

func (h *PortalHandler) publish(c *gin.Context, s *portal.Session, t events.Type) {
	if s.Application == nil {
		return
	}
	if s.Created {
		h.events.Publish(c.Request.Context(), events.ForApplication(events.ApplicationCreated, s.Application))
		if t == events.ApplicationUpdated {
			return
		}
	}
	h.events.Publish(c.Request.Context(), events.ForApplication(t, s.Application))
}
