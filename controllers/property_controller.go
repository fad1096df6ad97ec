package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"properties-api/domain"
	"properties-api/dto"
	"properties-api/services"

	"github.com/gin-gonic/gin"
)

// PropertyController maneja los endpoints HTTP del catálogo de propiedades
type PropertyController struct {
	service services.PropertyService
}

// NewPropertyController crea una nueva instancia del controlador
func NewPropertyController(service services.PropertyService) *PropertyController {
	return &PropertyController{service: service}
}

// HealthCheck maneja GET /health
func (ctrl *PropertyController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "properties-api",
	})
}

// GetAllProperties maneja GET /properties
// Sirve el catálogo completo desde el snapshot cacheado
func (ctrl *PropertyController) GetAllProperties(c *gin.Context) {
	properties, err := ctrl.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "list_properties_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.PropertyListResponse{Data: properties})
}

// SearchProperties maneja GET /properties/search
// Los filtros van por query params; esta ruta no usa el snapshot cacheado
func (ctrl *PropertyController) SearchProperties(c *gin.Context) {
	filter, err := parseFilterRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_filter",
			Message: err.Error(),
		})
		return
	}

	results, err := ctrl.service.Search(c.Request.Context(), *filter)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_filter",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "search_properties_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.PropertySearchResponse{
		Results:      results,
		TotalResults: len(results),
	})
}

// GetPropertyByID maneja GET /properties/:id
func (ctrl *PropertyController) GetPropertyByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid property ID",
		})
		return
	}

	property, err := ctrl.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "property_not_found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "get_property_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, property)
}

// CreateProperty maneja POST /properties
func (ctrl *PropertyController) CreateProperty(c *gin.Context) {
	// 1. Leer el JSON del body
	var req dto.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	// 2. Llamar al servicio para crear la propiedad
	property, err := ctrl.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "create_property_error",
			Message: err.Error(),
		})
		return
	}

	// 3. Devolver respuesta exitosa con la propiedad creada
	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "Property created successfully",
		Data:    property,
	})
}

// UpdateProperty maneja PUT /properties/:id
func (ctrl *PropertyController) UpdateProperty(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid property ID",
		})
		return
	}

	var req dto.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	property, err := ctrl.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "property_not_found",
				Message: err.Error(),
			})
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "update_property_error",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Property updated successfully",
		Data:    property,
	})
}

// DeleteProperty maneja DELETE /properties/:id
func (ctrl *PropertyController) DeleteProperty(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid property ID",
		})
		return
	}

	if err := ctrl.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "property_not_found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "delete_property_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Property deleted successfully",
	})
}

// parseIDParam parsea el parámetro :id de la URL
func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parseFilterRequest parsea los query parameters a PropertyFilterRequest
// Solo los parámetros presentes generan un predicado
func parseFilterRequest(c *gin.Context) (*dto.PropertyFilterRequest, error) {
	filter := &dto.PropertyFilterRequest{
		Category: c.Query("category"),
		Country:  c.Query("country"),
		Search:   c.Query("search"),
	}

	if value := c.Query("min_price"); value != "" {
		minPrice, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		filter.MinPrice = &minPrice
	}

	if value := c.Query("max_price"); value != "" {
		maxPrice, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		filter.MaxPrice = &maxPrice
	}

	if value := c.Query("bedrooms"); value != "" {
		bedrooms, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		filter.Bedrooms = &bedrooms
	}

	if value := c.Query("bathrooms"); value != "" {
		bathrooms, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		filter.Bathrooms = &bathrooms
	}

	if value := c.Query("guests"); value != "" {
		guests, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		filter.Guests = &guests
	}

	if value := c.Query("favorited"); value != "" {
		favorited, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		filter.Favorited = &favorited
	}

	return filter, nil
}
