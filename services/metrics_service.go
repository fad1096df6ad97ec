package services

import (
	"context"
	"log"
	"math"
	"time"

	"properties-api/dto"
	"properties-api/repositories"
)

// hitRatioWarnThreshold es el hit ratio mínimo antes de avisar al operador
const hitRatioWarnThreshold = 0.70

// MetricsService define la interfaz del colector de métricas de caché
type MetricsService interface {
	Snapshot(ctx context.Context) *dto.CacheMetricsResponse
	CheckHealth(ctx context.Context)
}

// metricsService es la implementación real del colector
// Solo lee contadores: nunca muta el caché ni la base
type metricsService struct {
	cache repositories.CacheRepository
}

// NewMetricsService crea una nueva instancia del colector de métricas
func NewMetricsService(cache repositories.CacheRepository) MetricsService {
	return &metricsService{cache: cache}
}

// Snapshot arma el reporte de efectividad del caché a partir de los
// contadores de runtime. Si el caché no responde, devuelve contadores
// en cero con el error marcado: las métricas son diagnóstico y no
// pueden tirar abajo a quien las pide.
func (s *metricsService) Snapshot(ctx context.Context) *dto.CacheMetricsResponse {
	response := &dto.CacheMetricsResponse{
		Timestamp: time.Now().UTC(),
	}

	stats, err := s.cache.Stats(ctx)
	if err != nil {
		log.Printf("Error collecting cache metrics: %v", err)
		response.Error = err.Error()
		return response
	}

	total := stats.Hits + stats.Misses

	response.KeyspaceHits = stats.Hits
	response.KeyspaceMisses = stats.Misses
	response.TotalRequests = total
	response.UsedMemory = stats.UsedMemory
	response.UsedMemoryHuman = stats.UsedMemoryHuman
	response.EvictedKeys = stats.EvictedKeys
	response.ExpiredKeys = stats.ExpiredKeys
	response.ConnectedClients = stats.ConnectedClients

	// hit_ratio = hits / (hits + misses), 0 cuando no hubo requests
	if total > 0 {
		ratio := float64(stats.Hits) / float64(total)
		response.HitRatio = roundTo(ratio, 4)
		response.HitRatioPercentage = roundTo(ratio*100, 2)
	}

	return response
}

// CheckHealth evalúa el snapshot y avisa si la efectividad del caché degradó
func (s *metricsService) CheckHealth(ctx context.Context) {
	metrics := s.Snapshot(ctx)
	if metrics.Error != "" {
		return
	}
	if belowThreshold(metrics) {
		log.Printf("WARNING: cache hit ratio degraded: hit_ratio=%.4f (threshold=%.2f), hits=%d, misses=%d",
			metrics.HitRatio, hitRatioWarnThreshold, metrics.KeyspaceHits, metrics.KeyspaceMisses)
	}
}

// belowThreshold determina si el hit ratio amerita un warning
// Sin requests todavía no hay nada que medir
func belowThreshold(metrics *dto.CacheMetricsResponse) bool {
	return metrics.TotalRequests > 0 && metrics.HitRatio < hitRatioWarnThreshold
}

// roundTo redondea a la cantidad de decimales pedida
func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
