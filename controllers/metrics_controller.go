package controllers

import (
	"net/http"

	"properties-api/services"

	"github.com/gin-gonic/gin"
)

// MetricsController maneja los endpoints de métricas de caché
type MetricsController struct {
	service services.MetricsService
}

// NewMetricsController crea una nueva instancia del controlador
func NewMetricsController(service services.MetricsService) *MetricsController {
	return &MetricsController{service: service}
}

// GetCacheMetrics maneja GET /cache/metrics
// Siempre responde 200: si el caché no está disponible, el snapshot
// viene con los contadores en cero y el campo error marcado
func (ctrl *MetricsController) GetCacheMetrics(c *gin.Context) {
	metrics := ctrl.service.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, metrics)
}
