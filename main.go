package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"properties-api/config"
	"properties-api/controllers"
	"properties-api/domain"
	"properties-api/publishers"
	"properties-api/repositories"
	"properties-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	log.Println("Starting Properties API...")

	// a. Cargar configuración
	cfg := config.LoadConfig()
	log.Printf("Configuration loaded: Port=%s, DB=%s:%s/%s, Redis=%s",
		cfg.Port, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.RedisAddr)

	// b. Conectar a MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	log.Println("Connecting to MySQL...")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// GORM crea la tabla "properties" si no existe
	if err := db.AutoMigrate(&domain.Property{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	log.Println("MySQL connected, migrations applied")

	// c. Inicializar repositorios
	propertyRepo := repositories.NewPropertyRepository(db)
	cacheRepo := repositories.NewCacheRepository(cfg.RedisAddr, cfg.RedisPassword)

	// Verificar la conexión con Redis: si no responde arrancamos igual,
	// los reads degradan a la base y las métricas reportan el error
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cacheRepo.Ping(pingCtx); err != nil {
		log.Printf("WARNING: Redis not reachable at startup: %v", err)
	}
	cancelPing()

	// d. Inicializar publisher de RabbitMQ
	// Sin RabbitMQ la API funciona igual, solo no avisa al indexador
	var publisher publishers.PropertyPublisher
	rabbitPublisher, err := publishers.NewRabbitMQPublisher(cfg.RabbitMQURL, "properties_queue")
	if err != nil {
		log.Printf("WARNING: RabbitMQ publisher disabled: %v", err)
	} else {
		publisher = rabbitPublisher
		log.Println("RabbitMQ publisher initialized")
	}

	// e. Inicializar servicios
	countryService := services.NewCountryService(cacheRepo, cfg.CountriesAPIURL)
	propertyService := services.NewPropertyService(propertyRepo, cacheRepo, countryService, publisher)
	metricsService := services.NewMetricsService(cacheRepo)

	// f. Inicializar controladores
	propertyController := controllers.NewPropertyController(propertyService)
	metricsController := controllers.NewMetricsController(metricsService)

	// g. Configurar Gin
	router := gin.Default()

	// CORS - Permitir requests desde el frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// h. Definir rutas
	router.GET("/health", propertyController.HealthCheck)
	router.GET("/properties", propertyController.GetAllProperties)
	router.GET("/properties/search", propertyController.SearchProperties)
	router.GET("/properties/:id", propertyController.GetPropertyByID)
	router.POST("/properties", propertyController.CreateProperty)
	router.PUT("/properties/:id", propertyController.UpdateProperty)
	router.DELETE("/properties/:id", propertyController.DeleteProperty)
	router.GET("/cache/metrics", metricsController.GetCacheMetrics)

	log.Println("Routes configured:")
	log.Println("   - GET    /health")
	log.Println("   - GET    /properties")
	log.Println("   - GET    /properties/search")
	log.Println("   - GET    /properties/:id")
	log.Println("   - POST   /properties")
	log.Println("   - PUT    /properties/:id")
	log.Println("   - DELETE /properties/:id")
	log.Println("   - GET    /cache/metrics")

	// i. Monitor de efectividad del caché en una goroutine
	monitorDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metricsService.CheckHealth(context.Background())
			case <-monitorDone:
				return
			}
		}
	}()

	// j. Crear y arrancar servidor HTTP
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Properties API started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// k. Manejar graceful shutdown con signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Properties API...")
	close(monitorDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("Error closing RabbitMQ publisher: %v", err)
		}
	}

	if err := cacheRepo.Close(); err != nil {
		log.Printf("Error closing cache: %v", err)
	}

	log.Println("Properties API shut down complete")
}
