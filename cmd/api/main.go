package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/infohero-app/backend/internal/config"
	"github.com/infohero-app/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	log.Printf("🚀 Server starting on port %s\n", cfg.Port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
