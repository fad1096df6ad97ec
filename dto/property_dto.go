package dto

import (
	"time"

	"properties-api/domain"
)

// CreatePropertyRequest representa el request para publicar una propiedad
type CreatePropertyRequest struct {
	Title         string  `json:"title" binding:"required,max=200"`
	Description   string  `json:"description"`
	PricePerNight float64 `json:"price_per_night" binding:"required"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	Guests        int     `json:"guests"`
	Country       string  `json:"country"`
	CountryCode   string  `json:"country_code"`
	Category      string  `json:"category" binding:"required"`
	Favorited     bool    `json:"favorited"`
}

// UpdatePropertyRequest representa el request para actualizar una propiedad
// Todos los campos son opcionales: los punteros en nil no se tocan
type UpdatePropertyRequest struct {
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	PricePerNight *float64 `json:"price_per_night,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	Guests        *int     `json:"guests,omitempty"`
	Country       *string  `json:"country,omitempty"`
	CountryCode   *string  `json:"country_code,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Favorited     *bool    `json:"favorited,omitempty"`
}

// PropertyFilterRequest representa los filtros de búsqueda sobre el catálogo
// Los punteros en nil significan "sin restricción para ese campo"
type PropertyFilterRequest struct {
	Category  string   `json:"category" form:"category"`
	MinPrice  *float64 `json:"min_price" form:"min_price"`
	MaxPrice  *float64 `json:"max_price" form:"max_price"`
	Bedrooms  *int     `json:"bedrooms" form:"bedrooms"`
	Bathrooms *int     `json:"bathrooms" form:"bathrooms"`
	Guests    *int     `json:"guests" form:"guests"`
	Country   string   `json:"country" form:"country"`
	Favorited *bool    `json:"favorited" form:"favorited"`
	Search    string   `json:"search" form:"search"`
}

// PropertyProjection es la proyección de una propiedad que va al snapshot cacheado
type PropertyProjection struct {
	ID            uint                    `json:"id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	PricePerNight float64                 `json:"price_per_night"`
	Bedrooms      int                     `json:"bedrooms"`
	Bathrooms     int                     `json:"bathrooms"`
	Guests        int                     `json:"guests"`
	Country       string                  `json:"country"`
	CountryCode   string                  `json:"country_code"`
	Category      domain.PropertyCategory `json:"category"`
	Favorited     bool                    `json:"favorited"`
	CreatedAt     time.Time               `json:"created_at"`
}

// PropertyListResponse representa la respuesta del listado completo del catálogo
type PropertyListResponse struct {
	Data []PropertyProjection `json:"data"`
}

// PropertySearchResponse representa la respuesta de una búsqueda filtrada
type PropertySearchResponse struct {
	Results      []PropertyProjection `json:"results"`
	TotalResults int                  `json:"total_results"`
}

// CacheMetricsResponse representa las métricas de efectividad del caché
type CacheMetricsResponse struct {
	KeyspaceHits       int64     `json:"keyspace_hits"`
	KeyspaceMisses     int64     `json:"keyspace_misses"`
	TotalRequests      int64     `json:"total_requests"`
	HitRatio           float64   `json:"hit_ratio"`
	HitRatioPercentage float64   `json:"hit_ratio_percentage"`
	UsedMemory         int64     `json:"used_memory"`
	UsedMemoryHuman    string    `json:"used_memory_human"`
	EvictedKeys        int64     `json:"evicted_keys"`
	ExpiredKeys        int64     `json:"expired_keys"`
	ConnectedClients   int64     `json:"connected_clients"`
	Timestamp          time.Time `json:"timestamp"`
	Error              string    `json:"error,omitempty"`
}

// ErrorResponse representa una respuesta de error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse representa una respuesta exitosa
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
