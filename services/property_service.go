package services

import (
	"context"
	"fmt"
	"log"

	"properties-api/domain"
	"properties-api/dto"
	"properties-api/publishers"
	"properties-api/repositories"
)

// PropertyService define la interfaz del servicio de catálogo
type PropertyService interface {
	ListAll(ctx context.Context) ([]dto.PropertyProjection, error)
	Search(ctx context.Context, filter dto.PropertyFilterRequest) ([]dto.PropertyProjection, error)
	GetByID(ctx context.Context, id uint) (*domain.Property, error)
	Create(ctx context.Context, req dto.CreatePropertyRequest) (*domain.Property, error)
	Update(ctx context.Context, id uint, req dto.UpdatePropertyRequest) (*domain.Property, error)
	Delete(ctx context.Context, id uint) error
}

// propertyService es la implementación real del servicio
type propertyService struct {
	repo      repositories.PropertyRepository
	cache     repositories.CacheRepository
	countries CountryService
	publisher publishers.PropertyPublisher // puede ser nil si no hay RabbitMQ
}

// NewPropertyService crea una nueva instancia del servicio
func NewPropertyService(repo repositories.PropertyRepository, cache repositories.CacheRepository, countries CountryService, publisher publishers.PropertyPublisher) PropertyService {
	return &propertyService{
		repo:      repo,
		cache:     cache,
		countries: countries,
		publisher: publisher,
	}
}

// ListAll devuelve el catálogo completo usando el snapshot cacheado
// bajo la clave all_properties, con TTL de 1 hora
func (s *propertyService) ListAll(ctx context.Context) ([]dto.PropertyProjection, error) {
	return CachedLoad(ctx, s.cache, domain.AllPropertiesCacheKey, domain.AllPropertiesTTL,
		func() ([]dto.PropertyProjection, error) {
			properties, err := s.repo.GetAll()
			if err != nil {
				return nil, err
			}
			return toProjections(properties), nil
		})
}

// Search ejecuta una búsqueda filtrada directamente contra la base
// Las combinaciones de filtros no están acotadas, así que no se cachean
func (s *propertyService) Search(ctx context.Context, filter dto.PropertyFilterRequest) ([]dto.PropertyProjection, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	properties, err := s.repo.Filter(filter)
	if err != nil {
		return nil, fmt.Errorf("error filtering properties: %w", err)
	}

	return toProjections(properties), nil
}

// GetByID obtiene una propiedad por su ID
func (s *propertyService) GetByID(ctx context.Context, id uint) (*domain.Property, error) {
	return s.repo.GetByID(id)
}

// Create publica una nueva propiedad en el catálogo
func (s *propertyService) Create(ctx context.Context, req dto.CreatePropertyRequest) (*domain.Property, error) {
	property := &domain.Property{
		Title:         req.Title,
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		Guests:        req.Guests,
		Country:       req.Country,
		CountryCode:   req.CountryCode,
		Category:      domain.PropertyCategory(req.Category),
		Favorited:     req.Favorited,
	}

	// Resolver el código de país si no vino en el request
	if property.CountryCode == "" && property.Country != "" {
		property.CountryCode = s.countries.ResolveCode(ctx, property.Country)
	}

	// 1. Validar antes de tocar la base
	if err := property.Validate(); err != nil {
		return nil, err
	}

	// 2. Guardar en la base de datos
	if err := s.repo.Create(property); err != nil {
		return nil, err
	}

	// 3. Invalidar el snapshot del catálogo antes de responder
	s.invalidateCache(ctx)

	// 4. Avisar al indexador de búsqueda
	s.publishEvent("create", property.ID)

	return property, nil
}

// Update actualiza una propiedad existente
// Los campos nil del request no se modifican
func (s *propertyService) Update(ctx context.Context, id uint, req dto.UpdatePropertyRequest) (*domain.Property, error) {
	// 1. Verificar que la propiedad existe
	property, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	// 2. Aplicar solo los campos presentes
	if req.Title != nil {
		property.Title = *req.Title
	}
	if req.Description != nil {
		property.Description = *req.Description
	}
	if req.PricePerNight != nil {
		property.PricePerNight = *req.PricePerNight
	}
	if req.Bedrooms != nil {
		property.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		property.Bathrooms = *req.Bathrooms
	}
	if req.Guests != nil {
		property.Guests = *req.Guests
	}
	if req.Country != nil {
		property.Country = *req.Country
		// Un país nuevo invalida el código anterior salvo que venga explícito
		if req.CountryCode == nil {
			property.CountryCode = s.countries.ResolveCode(ctx, property.Country)
		}
	}
	if req.CountryCode != nil {
		property.CountryCode = *req.CountryCode
	}
	if req.Category != nil {
		property.Category = domain.PropertyCategory(*req.Category)
	}
	if req.Favorited != nil {
		property.Favorited = *req.Favorited
	}

	// 3. Validar el estado resultante
	if err := property.Validate(); err != nil {
		return nil, err
	}

	// 4. Guardar los cambios (GORM refresca updated_at)
	if err := s.repo.Update(property); err != nil {
		return nil, err
	}

	// 5. Invalidar el snapshot del catálogo antes de responder
	s.invalidateCache(ctx)

	// 6. Avisar al indexador de búsqueda
	s.publishEvent("update", property.ID)

	return property, nil
}

// Delete elimina una propiedad del catálogo
func (s *propertyService) Delete(ctx context.Context, id uint) error {
	// 1. Eliminar de la base
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	// 2. Invalidar el snapshot del catálogo antes de responder
	s.invalidateCache(ctx)

	// 3. Avisar al indexador de búsqueda
	s.publishEvent("delete", id)

	return nil
}

// invalidateCache borra el snapshot del catálogo después de cada escritura.
// La escritura ya está confirmada en la base: si el caché no responde,
// se loguea y se sigue — la entrada vieja expira sola por TTL.
func (s *propertyService) invalidateCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, domain.AllPropertiesCacheKey); err != nil {
		log.Printf("Error clearing properties cache: %v", err)
		return
	}
	log.Printf("Properties cache cleared: key=%s", domain.AllPropertiesCacheKey)
}

// publishEvent publica el evento de escritura en la cola del indexador
// El publish es best-effort: un fallo nunca voltea la escritura
func (s *propertyService) publishEvent(action string, propertyID uint) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPropertyEvent(action, propertyID); err != nil {
		log.Printf("Error publishing property event: action=%s, id=%d, error=%v", action, propertyID, err)
	}
}

// validateFilter valida los parámetros de búsqueda
func validateFilter(filter dto.PropertyFilterRequest) error {
	if filter.Category != "" && !domain.PropertyCategory(filter.Category).IsValid() {
		return fmt.Errorf("%w: invalid category '%s'", domain.ErrValidation, filter.Category)
	}
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return fmt.Errorf("%w: min_price cannot be negative", domain.ErrValidation)
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return fmt.Errorf("%w: max_price cannot be negative", domain.ErrValidation)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return fmt.Errorf("%w: min_price cannot be greater than max_price", domain.ErrValidation)
	}
	if filter.Bedrooms != nil && *filter.Bedrooms < 0 {
		return fmt.Errorf("%w: bedrooms cannot be negative", domain.ErrValidation)
	}
	if filter.Bathrooms != nil && *filter.Bathrooms < 0 {
		return fmt.Errorf("%w: bathrooms cannot be negative", domain.ErrValidation)
	}
	if filter.Guests != nil && *filter.Guests < 0 {
		return fmt.Errorf("%w: guests cannot be negative", domain.ErrValidation)
	}
	return nil
}

// toProjections mapea propiedades del dominio a la proyección del catálogo
func toProjections(properties []domain.Property) []dto.PropertyProjection {
	projections := make([]dto.PropertyProjection, 0, len(properties))
	for _, p := range properties {
		projections = append(projections, dto.PropertyProjection{
			ID:            p.ID,
			Title:         p.Title,
			Description:   p.Description,
			PricePerNight: p.PricePerNight,
			Bedrooms:      p.Bedrooms,
			Bathrooms:     p.Bathrooms,
			Guests:        p.Guests,
			Country:       p.Country,
			CountryCode:   p.CountryCode,
			Category:      p.Category,
			Favorited:     p.Favorited,
			CreatedAt:     p.CreatedAt,
		})
	}
	return projections
}
