package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/events"
	"github.com/lalith-99/visaflow/internal/portal"
	"github.com/lalith-99/visaflow/internal/repository"
)

// Deps is everything the HTTP surface needs. Events, Stream and Metrics
// are optional.
type Deps struct {
	Clients      repository.ClientRepository
	Applications repository.ApplicationRepository
	Portal       *portal.Resolver
	Events       events.Publisher
	// Stream serves the websocket change stream at /v1/events.
	Stream http.Handler
	// Metrics serves the Prometheus scrape endpoint at /metrics.
	Metrics http.Handler
	Logger  *zap.Logger
}

// RegisterRoutes mounts every route on r.
func RegisterRoutes(r gin.IRouter, d Deps) {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	clients := NewClientHandler(d.Clients, d.Applications, d.Events, d.Logger)
	apps := NewApplicationHandler(d.Applications, d.Clients, d.Events, d.Logger)
	dashboard := NewDashboardHandler(d.Applications, d.Clients, d.Logger)
	portalH := NewPortalHandler(d.Portal, d.Events, d.Logger)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/health", Health)
		v1.GET("/visa-types", VisaTypes)
		v1.GET("/dashboard", dashboard.Get)

		c := v1.Group("/clients")
		{
			c.GET("", clients.List)
			c.POST("", clients.Create)
			c.GET("/:id", clients.GetByID)
			c.PUT("/:id", clients.Update)
			c.DELETE("/:id", clients.Delete)
			c.GET("/:id/applications", clients.Applications)
		}

		a := v1.Group("/applications")
		{
			a.GET("", apps.List)
			a.POST("", apps.Create)
			a.GET("/:id", apps.GetByID)
			a.PUT("/:id", apps.Update)
			a.DELETE("/:id", apps.Delete)
			a.PATCH("/:id/status", apps.UpdateStatus)
			a.POST("/:id/messages", apps.AddMessage)
			a.POST("/:id/documents", apps.AddDocument)
			a.DELETE("/:id/documents/:docId", apps.RemoveDocument)
		}

		p := v1.Group("/portal/:token")
		{
			p.GET("", portalH.Get)
			p.POST("/visa", portalH.SelectVisa)
			p.PUT("/application", portalH.Save)
			p.POST("/application/submit", portalH.Submit)
		}

		if d.Stream != nil {
			v1.GET("/events", gin.WrapH(d.Stream))
		}
	}
}
