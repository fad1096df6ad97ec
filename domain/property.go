package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PropertyCategory define las categorías de propiedad que existen
type PropertyCategory string

const (
	CategoryHouse     PropertyCategory = "house"
	CategoryApartment PropertyCategory = "apartment"
	CategoryHotel     PropertyCategory = "hotel"
	CategoryVilla     PropertyCategory = "villa"
	CategoryCottage   PropertyCategory = "cottage"
)

// Categories contiene todas las categorías válidas
var Categories = []PropertyCategory{
	CategoryHouse,
	CategoryApartment,
	CategoryHotel,
	CategoryVilla,
	CategoryCottage,
}

// IsValid verifica que la categoría pertenezca al conjunto permitido
func (c PropertyCategory) IsValid() bool {
	for _, category := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Errores del dominio
// ErrNotFound: la propiedad no existe
// ErrValidation: los datos no cumplen las invariantes del modelo
var (
	ErrNotFound   = errors.New("property not found")
	ErrValidation = errors.New("validation failed")
)

// Claves de caché — un único lugar para que no se repartan por el código
const (
	// AllPropertiesCacheKey es la clave del snapshot completo del catálogo
	AllPropertiesCacheKey = "all_properties"

	// AllPropertiesTTL es el tiempo de vida del snapshot del catálogo
	AllPropertiesTTL = 1 * time.Hour

	// CountryCodeTTL es el tiempo de vida de los códigos de país resueltos
	CountryCodeTTL = 24 * time.Hour
)

// CountryCodeCacheKey genera la clave de caché para el código de un país
func CountryCodeCacheKey(country string) string {
	return "country_code_" + strings.ToLower(country)
}

// Property representa una propiedad de alquiler del catálogo
type Property struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Title         string           `gorm:"size:200;not null" json:"title"`
	Description   string           `gorm:"type:text" json:"description"`
	PricePerNight float64          `gorm:"not null" json:"price_per_night"`
	Bedrooms      int              `json:"bedrooms"`
	Bathrooms     int              `json:"bathrooms"`
	Guests        int              `json:"guests"`
	Country       string           `gorm:"size:100" json:"country"`
	CountryCode   string           `gorm:"size:2" json:"country_code"`
	Category      PropertyCategory `gorm:"type:varchar(20)" json:"category"`
	Favorited     bool             `gorm:"default:false" json:"favorited"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName especifica el nombre de la tabla en MySQL
func (Property) TableName() string {
	return "properties"
}

// Validate verifica las invariantes del modelo antes de escribir en la base
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if p.PricePerNight <= 0 {
		return fmt.Errorf("%w: price_per_night must be positive", ErrValidation)
	}
	if p.Bedrooms < 0 {
		return fmt.Errorf("%w: bedrooms cannot be negative", ErrValidation)
	}
	if p.Bathrooms < 0 {
		return fmt.Errorf("%w: bathrooms cannot be negative", ErrValidation)
	}
	if p.Guests < 0 {
		return fmt.Errorf("%w: guests cannot be negative", ErrValidation)
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: invalid category '%s'", ErrValidation, p.Category)
	}
	if p.CountryCode != "" && len(p.CountryCode) != 2 {
		return fmt.Errorf("%w: country_code must have 2 letters", ErrValidation)
	}
	return nil
}
