package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"properties-api/domain"
	"properties-api/repositories"
)

// CountryService define la interfaz para resolver códigos de país
type CountryService interface {
	ResolveCode(ctx context.Context, country string) string
}

// countryService resuelve códigos ISO contra la API de REST Countries,
// cacheando cada resolución por 24 horas bajo country_code_<país>
type countryService struct {
	cache      repositories.CacheRepository
	apiURL     string
	httpClient *http.Client
}

// NewCountryService crea una nueva instancia de CountryService
func NewCountryService(cache repositories.CacheRepository, apiURL string) CountryService {
	return &countryService{
		cache:  cache,
		apiURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ResolveCode devuelve el código ISO de 2 letras para un país.
// Un país que no se puede resolver devuelve código vacío, nunca error:
// el country_code es un dato opcional del catálogo.
func (s *countryService) ResolveCode(ctx context.Context, country string) string {
	if strings.TrimSpace(country) == "" {
		return ""
	}

	cacheKey := domain.CountryCodeCacheKey(country)

	// 1. Consultar caché primero
	if data, found := s.cache.Get(ctx, cacheKey); found {
		return string(data)
	}

	// 2. Si no hay hit, consultar la API de países
	code, err := s.fetchCode(ctx, country)
	if err != nil {
		log.Printf("Error resolving country code: country=%s, error=%v", country, err)
		return ""
	}

	// 3. Guardar la resolución en caché por 24 horas
	// Esta clave nunca se invalida: expira sola por TTL
	if err := s.cache.Set(ctx, cacheKey, []byte(code), domain.CountryCodeTTL); err != nil {
		log.Printf("Error caching country code: country=%s, error=%v", country, err)
	}

	return code
}

// fetchCode consulta el código de país en REST Countries
func (s *countryService) fetchCode(ctx context.Context, country string) (string, error) {
	requestURL := fmt.Sprintf("%s/name/%s?fields=cca2", s.apiURL, url.PathEscape(country))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("countries API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []struct {
		CCA2 string `json:"cca2"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if len(results) == 0 || results[0].CCA2 == "" {
		return "", fmt.Errorf("no country code found for '%s'", country)
	}

	return strings.ToUpper(results[0].CCA2), nil
}
