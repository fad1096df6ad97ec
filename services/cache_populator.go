package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"properties-api/repositories"
)

// CachedLoad implementa el patrón cache-aside para una clave:
// en hit devuelve el valor cacheado sin tocar la base; en miss invoca
// el loader, guarda el resultado con el TTL dado y lo devuelve.
//
// Si el loader falla, el error se propaga y no se escribe nada en el caché.
// Los misses concurrentes para la misma clave pueden invocar el loader más
// de una vez; el loader es idempotente, así que solo cuesta trabajo repetido.
func CachedLoad[T any](ctx context.Context, cache repositories.CacheRepository, key string, ttl time.Duration, loader func() (T, error)) (T, error) {
	var value T

	// 1. Consultar caché primero
	if data, found := cache.Get(ctx, key); found {
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		// Una entrada corrupta se trata como un miss
		log.Printf("CachedLoad: corrupt cache entry, reloading: key=%s", key)
	}

	// 2. Si no hay hit, cargar desde la fuente autoritativa
	value, err := loader()
	if err != nil {
		return value, fmt.Errorf("error loading value for cache key %s: %w", key, err)
	}

	// 3. Guardar el resultado en caché
	data, err := json.Marshal(value)
	if err != nil {
		// El valor ya está cargado, devolverlo aunque no se pueda cachear
		log.Printf("CachedLoad: error marshaling value: key=%s, error=%v", key, err)
		return value, nil
	}

	// La población no depende de que el caller siga esperando:
	// si el caller canceló, la carga ya hecha igual se aprovecha
	if err := cache.Set(context.WithoutCancel(ctx), key, data, ttl); err != nil {
		log.Printf("CachedLoad: error populating cache: key=%s, error=%v", key, err)
	}

	return value, nil
}
