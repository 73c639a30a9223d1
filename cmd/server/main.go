package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SpherenexLabs/npk/internal/cache"
	"github.com/SpherenexLabs/npk/internal/database"
	"github.com/SpherenexLabs/npk/internal/handlers"
	"github.com/SpherenexLabs/npk/internal/knn"
	"github.com/SpherenexLabs/npk/internal/models"
	"github.com/SpherenexLabs/npk/internal/mqtt"
	"github.com/SpherenexLabs/npk/internal/services"
	"github.com/SpherenexLabs/npk/pkg/config"
)

func main() {
	log.Println("Starting NPK Advisor Service...")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// === Reference dataset and classifier ===
	dataset := knn.DefaultDataset()
	if cfg.DatasetPath != "" {
		var err error
		dataset, err = knn.LoadDataset(cfg.DatasetPath)
		if err != nil {
			log.Fatalf("Failed to load dataset: %v", err)
		}
	} else {
		log.Printf("No DATASET_PATH set, using built-in seed dataset (%d exemplars)", dataset.Len())
	}

	classifier, err := knn.NewClassifier(dataset, cfg.KNNK)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}

	// === Advisor service ===
	advisorConfig := services.AdvisorServiceConfig{
		HistoryCapacity:    cfg.HistoryCapacity,
		ReadingChannelSize: cfg.ReadingChanSize,
	}
	advisor, err := services.NewAdvisorService(classifier, advisorConfig)
	if err != nil {
		log.Fatalf("Failed to create advisor service: %v", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ClickHouse archive (optional) ===
	if cfg.ClickHouseEnabled {
		db, err := database.NewClickHouseDB(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
		)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		defer db.Close()

		advisor.AddSink(db)
		advisor.SetDeviceCallback(func(device *models.Device) {
			// Best effort - don't fail ingestion if registration fails
			if err := db.UpsertDevice(ctx, device); err != nil {
				log.Printf("Error registering device %s: %v", device.DeviceID, err)
			}
		})
	}

	// === Redis cache (optional, with retries) ===
	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		for i := 0; i < 5; i++ {
			redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err == nil {
				log.Printf("Connected to Redis at %s", cfg.RedisAddr)
				break
			}
			log.Printf("Redis connection attempt %d failed: %v", i+1, err)
			if i < 4 {
				time.Sleep(time.Duration(i+1) * time.Second)
			}
		}

		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, running without cache: %v", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			advisor.AddSink(redisCache)
		}
	}

	// === MQTT transport ===
	if cfg.MQTTEnabled {
		log.Println("Connecting to MQTT broker...")
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Fatalf("Failed to initialize MQTT client: %v", err)
		}
		defer mqttClient.Close()

		// Advice channel (Advisor → MQTT)
		resultChan := make(chan *models.IngestResult, cfg.ReadingChanSize)
		publisher := mqtt.NewPublisher(
			mqttClient.GetNativeClient(),
			mqtt.PublisherConfig{AdviceTopic: cfg.MQTTTopicAdvice},
			resultChan,
		)
		advisor.AddSink(publisher)
		go publisher.Start(ctx)

		// Reading channel (MQTT → Advisor) is owned by the advisor
		subscriber := mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{ReadingTopic: cfg.MQTTTopicReading},
			advisor.ReadingChan,
		)
		if err := subscriber.SubscribeAll(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT topics: %v", err)
		}
	}

	go advisor.Start(ctx)

	// === HTTP API ===
	handler := handlers.NewHandler(advisor, redisCache)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// === Log startup info ===
	log.Println("=== NPK Advisor Service is running ===")
	log.Printf("Dataset: %d exemplars, labels %v", dataset.Len(), dataset.Labels())
	log.Printf("Features: %v", dataset.Table().Names())
	log.Printf("k=%d, history capacity=%d", cfg.KNNK, cfg.HistoryCapacity)
	if cfg.MQTTEnabled {
		log.Printf("MQTT Topics:")
		log.Printf("  - Reading: %s", cfg.MQTTTopicReading)
		log.Printf("  - Advice:  %s", cfg.MQTTTopicAdvice)
	}
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete. Goodbye!")
}
