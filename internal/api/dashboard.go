package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/cache"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/repository"
	"github.com/lalith-99/visaflow/internal/workflow"
)

const recentApplications = 5

type DashboardHandler struct {
	apps    repository.ApplicationRepository
	clients repository.ClientRepository
	logger  *zap.Logger
}

func NewDashboardHandler(apps repository.ApplicationRepository, clients repository.ClientRepository, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{apps: apps, clients: clients, logger: logger}
}

type recentApplication struct {
	models.Application
	ClientName string `json:"clientName"`
}

type dashboardResponse struct {
	Total        int                   `json:"total"`
	StatusCounts map[models.Status]int `json:"statusCounts"`
	Recent       []recentApplication   `json:"recent"`
	Clients      int                   `json:"clients"`
}

// Get handles GET /v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
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

	names := clients.Names()
	recent := make([]recentApplication, 0, recentApplications)
	for _, a := range apps.Recent(recentApplications) {
		recent = append(recent, recentApplication{Application: a, ClientName: names[a.ClientID]})
	}

	c.JSON(http.StatusOK, dashboardResponse{
		Total:        len(apps.Items()),
		StatusCounts: apps.StatusCounts(),
		Recent:       recent,
		Clients:      len(names),
	})
}

// VisaTypes handles GET /v1/visa-types
func VisaTypes(c *gin.Context) {
	c.JSON(http.StatusOK, workflow.VisaTypes())
}

// Health handles GET /v1/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
