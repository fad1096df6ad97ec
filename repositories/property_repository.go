package repositories

import (
	"errors"
	"strings"

	"properties-api/domain"
	"properties-api/dto"

	"gorm.io/gorm"
)

// PropertyRepository define la interfaz del repositorio de propiedades
type PropertyRepository interface {
	Create(property *domain.Property) error
	GetByID(id uint) (*domain.Property, error)
	Update(property *domain.Property) error
	Delete(id uint) error
	GetAll() ([]domain.Property, error)
	Filter(filter dto.PropertyFilterRequest) ([]domain.Property, error)
}

// propertyRepository es la implementación real del repositorio
type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository crea una nueva instancia del repositorio
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Create inserta una nueva propiedad en la base de datos
// GORM asigna el ID y el created_at automáticamente
func (r *propertyRepository) Create(property *domain.Property) error {
	return r.db.Create(property).Error
}

// GetByID busca una propiedad por su ID
func (r *propertyRepository) GetByID(id uint) (*domain.Property, error) {
	var property domain.Property
	err := r.db.First(&property, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &property, nil
}

// Update guarda los cambios de una propiedad existente
// GORM refresca el updated_at en cada Save
func (r *propertyRepository) Update(property *domain.Property) error {
	return r.db.Save(property).Error
}

// Delete elimina una propiedad por su ID
func (r *propertyRepository) Delete(id uint) error {
	result := r.db.Delete(&domain.Property{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetAll obtiene el catálogo completo ordenado por fecha de creación descendente
// El desempate por ID garantiza un orden estable entre llamadas
func (r *propertyRepository) GetAll() ([]domain.Property, error) {
	var properties []domain.Property
	err := r.db.Order("created_at DESC, id DESC").Find(&properties).Error
	return properties, err
}

// Filter arma la consulta a partir de los predicados activos del filtro
// Los campos ausentes no agregan restricción; todos los predicados se combinan con AND
func (r *propertyRepository) Filter(filter dto.PropertyFilterRequest) ([]domain.Property, error) {
	query := r.db.Model(&domain.Property{})

	// Filtro por categoría (match exacto)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	// Filtro por rango de precio (límites inclusivos)
	if filter.MinPrice != nil {
		query = query.Where("price_per_night >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price_per_night <= ?", *filter.MaxPrice)
	}

	// Filtros por mínimos de habitaciones, baños y huéspedes
	if filter.Bedrooms != nil {
		query = query.Where("bedrooms >= ?", *filter.Bedrooms)
	}
	if filter.Bathrooms != nil {
		query = query.Where("bathrooms >= ?", *filter.Bathrooms)
	}
	if filter.Guests != nil {
		query = query.Where("guests >= ?", *filter.Guests)
	}

	// Filtro por país (substring, case-insensitive)
	if filter.Country != "" {
		query = query.Where("LOWER(country) LIKE ?", "%"+strings.ToLower(filter.Country)+"%")
	}

	// Filtro por favoritos (match exacto)
	if filter.Favorited != nil {
		query = query.Where("favorited = ?", *filter.Favorited)
	}

	// Búsqueda de texto: OR entre título, descripción y país, AND con el resto
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(country) LIKE ?",
			term, term, term,
		)
	}

	var properties []domain.Property
	err := query.Order("created_at DESC, id DESC").Find(&properties).Error
	return properties, err
}
