package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BloodLink/pkg/middleware"
)

// RegisterRoutes mounts the full HTTP surface.
func (h *Handlers) RegisterRoutes(r *gin.Engine, limiter *middleware.RateLimiter) {
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	api := r.Group("/api")
	{
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/complete", h.CompleteRequest)

		api.GET("/hospitals/nearby", h.NearbyHospitals)
		api.GET("/inventory", h.Inventory)
		api.POST("/inventory", h.UpdateStock)
	}

	webhook := r.Group("/webhook")
	{
		webhook.POST("/sms", h.SMSWebhook)
		webhook.POST("/sms/status", h.SMSStatusCallback)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.met.Registry, promhttp.HandlerOpts{})))
}
