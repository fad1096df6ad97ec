package repositories

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indica que la clave no existe en el nivel distribuido
var ErrCacheMiss = errors.New("cache: key not found")

// localCacheTTL limita la vida del nivel local para que la staleness
// observable nunca supere de forma apreciable el TTL del nivel distribuido
const localCacheTTL = 1 * time.Minute

// CacheStats contiene los contadores de runtime del caché distribuido
type CacheStats struct {
	Hits             int64
	Misses           int64
	EvictedKeys      int64
	ExpiredKeys      int64
	UsedMemory       int64
	UsedMemoryHuman  string
	ConnectedClients int64
}

// CacheRepository define la interfaz para operaciones de caché
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (*CacheStats, error)
	Ping(ctx context.Context) error
	Close() error
}

// remoteCache es el nivel distribuido del caché (Redis en producción)
type remoteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Info(ctx context.Context) (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// cacheRepository implementa CacheRepository con dos niveles:
// un ccache local en memoria y un Redis compartido entre instancias
type cacheRepository struct {
	localCache *ccache.Cache[[]byte]
	remote     remoteCache
}

// NewCacheRepository crea una nueva instancia de CacheRepository sobre Redis
func NewCacheRepository(redisAddr, redisPassword string) CacheRepository {
	// Inicializar ccache local con configuración por defecto
	localCache := ccache.New(ccache.Configure[[]byte]().MaxSize(1000))

	// Conectar con Redis
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	log.Printf("Cache repository initialized with Redis at %s", redisAddr)

	return &cacheRepository{
		localCache: localCache,
		remote:     &redisCache{client: client},
	}
}

// newCacheRepositoryWithRemote permite inyectar el nivel distribuido (para tests)
func newCacheRepositoryWithRemote(remote remoteCache) *cacheRepository {
	return &cacheRepository{
		localCache: ccache.New(ccache.Configure[[]byte]().MaxSize(1000)),
		remote:     remote,
	}
}

// Get obtiene datos del caché (primero local, luego Redis)
// Cualquier fallo del nivel distribuido se degrada a un miss
func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, bool) {
	// 1. Buscar en caché local primero
	item := r.localCache.Get(key)
	if item != nil && !item.Expired() {
		log.Printf("Cache HIT (local): key=%s", key)
		return item.Value(), true
	}

	// 2. Si no está en local, buscar en Redis
	value, err := r.remote.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			log.Printf("Cache MISS: key=%s", key)
			return nil, false
		}
		log.Printf("Error getting from Redis: key=%s, error=%v", key, err)
		return nil, false
	}

	// 3. Guardar en caché local para próximas consultas
	r.localCache.Set(key, value, localCacheTTL)
	log.Printf("Cache HIT (Redis): key=%s, stored in local cache", key)

	return value, true
}

// Set guarda datos en ambos niveles de caché
func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// 1. Guardar en caché local, nunca más allá del TTL pedido
	localTTL := localCacheTTL
	if ttl < localTTL {
		localTTL = ttl
	}
	r.localCache.Set(key, value, localTTL)

	// 2. Guardar en Redis con el TTL completo
	if err := r.remote.Set(ctx, key, value, ttl); err != nil {
		log.Printf("Error setting cache in Redis: key=%s, error=%v", key, err)
		return err
	}

	log.Printf("Cache SET: key=%s, ttl=%s", key, ttl)
	return nil
}

// Delete elimina datos de ambos niveles de caché
// Borrar una clave inexistente no es un error
func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	// 1. Eliminar de caché local
	r.localCache.Delete(key)

	// 2. Eliminar de Redis
	if err := r.remote.Del(ctx, key); err != nil {
		log.Printf("Error deleting from Redis: key=%s, error=%v", key, err)
		return err
	}

	log.Printf("Cache DELETE: key=%s", key)
	return nil
}

// Stats lee los contadores de runtime del nivel distribuido
func (r *cacheRepository) Stats(ctx context.Context) (*CacheStats, error) {
	info, err := r.remote.Info(ctx)
	if err != nil {
		return nil, err
	}
	return statsFromInfo(info), nil
}

// Ping verifica la conexión con el nivel distribuido
func (r *cacheRepository) Ping(ctx context.Context) error {
	return r.remote.Ping(ctx)
}

// Close cierra la conexión con el nivel distribuido
func (r *cacheRepository) Close() error {
	r.localCache.Stop()
	return r.remote.Close()
}

// statsFromInfo traduce los campos del INFO de Redis a CacheStats
func statsFromInfo(info map[string]string) *CacheStats {
	return &CacheStats{
		Hits:             parseInfoInt(info, "keyspace_hits"),
		Misses:           parseInfoInt(info, "keyspace_misses"),
		EvictedKeys:      parseInfoInt(info, "evicted_keys"),
		ExpiredKeys:      parseInfoInt(info, "expired_keys"),
		UsedMemory:       parseInfoInt(info, "used_memory"),
		UsedMemoryHuman:  info["used_memory_human"],
		ConnectedClients: parseInfoInt(info, "connected_clients"),
	}
}

func parseInfoInt(info map[string]string, key string) int64 {
	value, err := strconv.ParseInt(info[key], 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// redisCache adapta el cliente de go-redis a la interfaz remoteCache
type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return value, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	// DEL de una clave inexistente retorna 0, no error
	return c.client.Del(ctx, key).Err()
}

// Info consulta las secciones stats, memory y clients del INFO de Redis
// y las parsea a un mapa campo -> valor
func (c *redisCache) Info(ctx context.Context) (map[string]string, error) {
	raw, err := c.client.Info(ctx, "stats", "memory", "clients").Result()
	if err != nil {
		return nil, err
	}

	info := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		info[parts[0]] = parts[1]
	}
	return info, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
