package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"properties-api/domain"
	"properties-api/dto"
	"properties-api/repositories"
)

// ============================================
// MOCK del repositorio de propiedades
// ============================================

type mockPropertyRepository struct {
	properties  map[uint]*domain.Property
	nextID      uint
	getAllCalls int
	failGetAll  bool
}

func newMockPropertyRepository() *mockPropertyRepository {
	return &mockPropertyRepository{
		properties: make(map[uint]*domain.Property),
	}
}

func (m *mockPropertyRepository) Create(property *domain.Property) error {
	// Simular auto-increment del ID y el created_at que asigna la base
	m.nextID++
	property.ID = m.nextID
	property.CreatedAt = baseTime.Add(time.Duration(m.nextID) * time.Minute)
	property.UpdatedAt = property.CreatedAt
	stored := *property
	m.properties[property.ID] = &stored
	return nil
}

func (m *mockPropertyRepository) GetByID(id uint) (*domain.Property, error) {
	property, exists := m.properties[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	found := *property
	return &found, nil
}

func (m *mockPropertyRepository) Update(property *domain.Property) error {
	if _, exists := m.properties[property.ID]; !exists {
		return domain.ErrNotFound
	}
	property.UpdatedAt = property.CreatedAt.Add(time.Hour)
	stored := *property
	m.properties[property.ID] = &stored
	return nil
}

func (m *mockPropertyRepository) Delete(id uint) error {
	if _, exists := m.properties[id]; !exists {
		return domain.ErrNotFound
	}
	delete(m.properties, id)
	return nil
}

func (m *mockPropertyRepository) GetAll() ([]domain.Property, error) {
	m.getAllCalls++
	if m.failGetAll {
		return nil, errors.New("database unavailable")
	}
	properties := make([]domain.Property, 0, len(m.properties))
	for _, p := range m.properties {
		properties = append(properties, *p)
	}
	// Mismo orden que la consulta real: created_at DESC, id DESC
	sort.Slice(properties, func(i, j int) bool {
		if !properties[i].CreatedAt.Equal(properties[j].CreatedAt) {
			return properties[i].CreatedAt.After(properties[j].CreatedAt)
		}
		return properties[i].ID > properties[j].ID
	})
	return properties, nil
}

func (m *mockPropertyRepository) Filter(filter dto.PropertyFilterRequest) ([]domain.Property, error) {
	all, err := m.GetAll()
	if err != nil {
		return nil, err
	}
	var results []domain.Property
	for _, p := range all {
		if matchesFilter(p, filter) {
			results = append(results, p)
		}
	}
	return results, nil
}

// matchesFilter replica la semántica de los predicados de la consulta SQL
func matchesFilter(p domain.Property, f dto.PropertyFilterRequest) bool {
	if f.Category != "" && string(p.Category) != f.Category {
		return false
	}
	if f.MinPrice != nil && p.PricePerNight < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.PricePerNight > *f.MaxPrice {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms < *f.Bedrooms {
		return false
	}
	if f.Bathrooms != nil && p.Bathrooms < *f.Bathrooms {
		return false
	}
	if f.Guests != nil && p.Guests < *f.Guests {
		return false
	}
	if f.Country != "" && !strings.Contains(strings.ToLower(p.Country), strings.ToLower(f.Country)) {
		return false
	}
	if f.Favorited != nil && p.Favorited != *f.Favorited {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Country), term) {
			return false
		}
	}
	return true
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// ============================================
// MOCK del caché (en memoria, con TTL)
// ============================================

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

type mockCacheRepository struct {
	entries     map[string]*cacheEntry
	stats       *repositories.CacheStats
	statsErr    error
	failSet     bool
	failDelete  bool
	setCalls    int
	deleteCalls int
}

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{
		entries: make(map[string]*cacheEntry),
	}
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, exists := m.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	if m.failSet {
		return errors.New("cache unavailable")
	}
	m.entries[key] = &cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	m.deleteCalls++
	if m.failDelete {
		return errors.New("cache unavailable")
	}
	// Borrar una clave inexistente es un no-op
	delete(m.entries, key)
	return nil
}

func (m *mockCacheRepository) Stats(ctx context.Context) (*repositories.CacheStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

func (m *mockCacheRepository) Ping(ctx context.Context) error { return nil }
func (m *mockCacheRepository) Close() error                   { return nil }

// ============================================
// MOCK del publisher y stub del resolver de países
// ============================================

type publishedEvent struct {
	action     string
	propertyID uint
}

type mockPublisher struct {
	events []publishedEvent
	fail   bool
}

func (m *mockPublisher) PublishPropertyEvent(action string, propertyID uint) error {
	if m.fail {
		return errors.New("rabbitmq unavailable")
	}
	m.events = append(m.events, publishedEvent{action: action, propertyID: propertyID})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type stubCountryService struct {
	code string
}

func (s *stubCountryService) ResolveCode(ctx context.Context, country string) string {
	return s.code
}

// ============================================
// Helpers
// ============================================

func newTestService() (PropertyService, *mockPropertyRepository, *mockCacheRepository, *mockPublisher) {
	repo := newMockPropertyRepository()
	cache := newMockCacheRepository()
	publisher := &mockPublisher{}
	service := NewPropertyService(repo, cache, &stubCountryService{}, publisher)
	return service, repo, cache, publisher
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func mustCreate(t *testing.T, service PropertyService, req dto.CreatePropertyRequest) *domain.Property {
	t.Helper()
	property, err := service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error creating property, got %v", err)
	}
	return property
}

func houseInFrance() dto.CreatePropertyRequest {
	return dto.CreatePropertyRequest{
		Title:         "Stone house near the Loire",
		Description:   "Quiet family house with a garden",
		PricePerNight: 100,
		Bedrooms:      3,
		Bathrooms:     2,
		Guests:        6,
		Country:       "France",
		CountryCode:   "FR",
		Category:      "house",
	}
}

func villaInSpain() dto.CreatePropertyRequest {
	return dto.CreatePropertyRequest{
		Title:         "Villa with sea view",
		Description:   "Modern villa with private pool",
		PricePerNight: 300,
		Bedrooms:      5,
		Bathrooms:     4,
		Guests:        10,
		Country:       "Spain",
		CountryCode:   "ES",
		Category:      "villa",
	}
}

// ============================================
// TESTS: lectura cacheada del catálogo
// ============================================

// Test: el primer ListAll carga de la base, el segundo sale del caché
func TestListAll_PopulatesCache(t *testing.T) {
	service, repo, _, _ := newTestService()
	mustCreate(t, service, houseInFrance())
	repo.getAllCalls = 0

	first, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if repo.getAllCalls != 1 {
		t.Errorf("Expected 1 database load, got %d", repo.getAllCalls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected 1 property in both reads, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID || first[0].PricePerNight != second[0].PricePerNight {
		t.Error("Expected cached read to return the same snapshot")
	}
}

// Test: si la base falla, el error se propaga y no se cachea nada
func TestListAll_StoreErrorPropagates(t *testing.T) {
	service, repo, cache, _ := newTestService()
	repo.failGetAll = true

	_, err := service.ListAll(context.Background())
	if err == nil {
		t.Fatal("Expected error when store is unavailable, got nil")
	}
	if len(cache.entries) != 0 {
		t.Error("Expected nothing cached after loader failure")
	}

	// La base se recupera: la próxima lectura funciona
	repo.failGetAll = false
	if _, err := service.ListAll(context.Background()); err != nil {
		t.Errorf("Expected recovery after store came back, got %v", err)
	}
}

// ============================================
// TESTS: invalidación en escrituras
// ============================================

// Test: crear una propiedad invalida el snapshot y la próxima lectura la incluye
func TestCreate_InvalidatesCache(t *testing.T) {
	service, repo, _, _ := newTestService()
	mustCreate(t, service, houseInFrance())

	if _, err := service.ListAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	callsAfterFirstRead := repo.getAllCalls

	mustCreate(t, service, villaInSpain())

	properties, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if repo.getAllCalls != callsAfterFirstRead+1 {
		t.Error("Expected a fresh database load after the write invalidated the snapshot")
	}
	if len(properties) != 2 {
		t.Fatalf("Expected 2 properties after create, got %d", len(properties))
	}
}

// Test: ejemplo de invalidación — actualizar el precio se ve en la próxima lectura
func TestUpdate_PostWriteVisibility(t *testing.T) {
	service, _, _, _ := newTestService()
	property := mustCreate(t, service, houseInFrance())

	// Poblar el snapshot con el precio viejo
	before, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if before[0].PricePerNight != 100 {
		t.Fatalf("Expected cached price 100, got %v", before[0].PricePerNight)
	}

	// Actualizar el precio e inmediatamente leer el catálogo
	_, err = service.Update(context.Background(), property.ID, dto.UpdatePropertyRequest{
		PricePerNight: floatPtr(150),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	after, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if after[0].PricePerNight != 150 {
		t.Errorf("Expected price 150 after update, got %v (stale snapshot)", after[0].PricePerNight)
	}
}

// Test: una propiedad eliminada no aparece en la próxima lectura
func TestDelete_PostWriteVisibility(t *testing.T) {
	service, _, _, _ := newTestService()
	property := mustCreate(t, service, houseInFrance())

	if _, err := service.ListAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := service.Delete(context.Background(), property.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	properties, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(properties) != 0 {
		t.Errorf("Expected empty catalog after delete, got %d properties", len(properties))
	}
}

// Test: si el caché está caído, la invalidación se loguea pero la escritura no falla
func TestWrite_SucceedsWhenCacheUnavailable(t *testing.T) {
	service, repo, cache, publisher := newTestService()
	cache.failDelete = true

	property, err := service.Create(context.Background(), houseInFrance())
	if err != nil {
		t.Fatalf("Expected write to succeed despite cache failure, got %v", err)
	}
	if _, exists := repo.properties[property.ID]; !exists {
		t.Error("Expected property persisted in the store")
	}
	if cache.deleteCalls != 1 {
		t.Errorf("Expected 1 invalidation attempt, got %d", cache.deleteCalls)
	}
	if len(publisher.events) != 1 {
		t.Errorf("Expected event published despite cache failure, got %d", len(publisher.events))
	}
}

// Test: un fallo del publisher tampoco voltea la escritura
func TestWrite_SucceedsWhenPublisherUnavailable(t *testing.T) {
	service, repo, _, publisher := newTestService()
	publisher.fail = true

	property, err := service.Create(context.Background(), houseInFrance())
	if err != nil {
		t.Fatalf("Expected write to succeed despite publisher failure, got %v", err)
	}
	if _, exists := repo.properties[property.ID]; !exists {
		t.Error("Expected property persisted in the store")
	}
}

// ============================================
// TESTS: validaciones y errores
// ============================================

// Test: precio inválido se rechaza antes de tocar la base y el caché
func TestCreate_ValidationFailure(t *testing.T) {
	service, repo, cache, _ := newTestService()

	req := houseInFrance()
	req.PricePerNight = 0

	_, err := service.Create(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if len(repo.properties) != 0 {
		t.Error("Expected store untouched after validation failure")
	}
	if cache.deleteCalls != 0 {
		t.Error("Expected cache untouched after validation failure")
	}
}

// Test: categoría fuera del conjunto permitido
func TestCreate_InvalidCategory(t *testing.T) {
	service, _, _, _ := newTestService()

	req := houseInFrance()
	req.Category = "castle"

	_, err := service.Create(context.Background(), req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown category, got %v", err)
	}
}

// Test: actualizar una propiedad inexistente devuelve not found sin tocar el caché
func TestUpdate_NotFound(t *testing.T) {
	service, _, cache, _ := newTestService()

	_, err := service.Update(context.Background(), 99, dto.UpdatePropertyRequest{
		Title: strPtr("ghost"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if cache.deleteCalls != 0 {
		t.Error("Expected no cache invalidation for a failed write")
	}
}

// Test: eliminar una propiedad inexistente devuelve not found sin tocar el caché
func TestDelete_NotFound(t *testing.T) {
	service, _, cache, _ := newTestService()

	err := service.Delete(context.Background(), 99)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if cache.deleteCalls != 0 {
		t.Error("Expected no cache invalidation for a failed write")
	}
}

// ============================================
// TESTS: eventos y código de país
// ============================================

// Test: cada escritura publica su evento para el indexador
func TestWrites_PublishEvents(t *testing.T) {
	service, _, _, publisher := newTestService()

	property := mustCreate(t, service, houseInFrance())
	if _, err := service.Update(context.Background(), property.ID, dto.UpdatePropertyRequest{
		Favorited: func() *bool { v := true; return &v }(),
	}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := service.Delete(context.Background(), property.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(publisher.events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(publisher.events))
	}
	expected := []string{"create", "update", "delete"}
	for i, action := range expected {
		if publisher.events[i].action != action {
			t.Errorf("Expected event %d to be '%s', got '%s'", i, action, publisher.events[i].action)
		}
		if publisher.events[i].propertyID != property.ID {
			t.Errorf("Expected event %d for property %d, got %d", i, property.ID, publisher.events[i].propertyID)
		}
	}
}

// Test: sin country_code en el request, se resuelve contra el servicio de países
func TestCreate_ResolvesCountryCode(t *testing.T) {
	repo := newMockPropertyRepository()
	cache := newMockCacheRepository()
	service := NewPropertyService(repo, cache, &stubCountryService{code: "FR"}, nil)

	req := houseInFrance()
	req.CountryCode = ""

	property, err := service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if property.CountryCode != "FR" {
		t.Errorf("Expected resolved country code FR, got '%s'", property.CountryCode)
	}
}

// ============================================
// TESTS: búsqueda filtrada
// ============================================

// Test: los ejemplos de filtrado del catálogo
func TestSearch_FilterExamples(t *testing.T) {
	service, _, _, _ := newTestService()
	houseID := mustCreate(t, service, houseInFrance()).ID
	villaID := mustCreate(t, service, villaInSpain()).ID

	// category=house devuelve exactamente la casa
	results, err := service.Search(context.Background(), dto.PropertyFilterRequest{Category: "house"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].ID != houseID {
		t.Errorf("Expected exactly the house for category=house, got %d results", len(results))
	}

	// min_price=150 devuelve exactamente la villa
	results, err = service.Search(context.Background(), dto.PropertyFilterRequest{MinPrice: floatPtr(150)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].ID != villaID {
		t.Errorf("Expected exactly the villa for min_price=150, got %d results", len(results))
	}

	// search=Spain matchea por país
	results, err = service.Search(context.Background(), dto.PropertyFilterRequest{Search: "Spain"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].ID != villaID {
		t.Errorf("Expected exactly the villa for search=Spain, got %d results", len(results))
	}
}

// Test: los predicados se combinan con AND
func TestSearch_CombinedPredicates(t *testing.T) {
	service, _, _, _ := newTestService()
	mustCreate(t, service, houseInFrance())
	mustCreate(t, service, villaInSpain())

	results, err := service.Search(context.Background(), dto.PropertyFilterRequest{
		Category: "villa",
		MinPrice: floatPtr(500),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results for villa over 500, got %d", len(results))
	}
}

// Test: la misma búsqueda repetida devuelve el mismo orden
func TestSearch_Deterministic(t *testing.T) {
	service, _, _, _ := newTestService()
	mustCreate(t, service, houseInFrance())
	mustCreate(t, service, villaInSpain())

	filter := dto.PropertyFilterRequest{}
	first, err := service.Search(context.Background(), filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := service.Search(context.Background(), filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected same result size, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Expected stable ordering at position %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
	// Más reciente primero
	if len(first) == 2 && !first[0].CreatedAt.After(first[1].CreatedAt) {
		t.Error("Expected results ordered by created_at descending")
	}
}

// Test: rango de precio inválido
func TestSearch_InvalidPriceRange(t *testing.T) {
	service, _, _, _ := newTestService()

	_, err := service.Search(context.Background(), dto.PropertyFilterRequest{
		MinPrice: floatPtr(300),
		MaxPrice: floatPtr(100),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for min_price > max_price, got %v", err)
	}
}
