// Seeds the first admin account. Run once after deploying a fresh database.
//
// Usage: go run scripts/seed_admin.go -email admin@example.com -password secret123 -name "Admin"

package main

import (
	"errors"
	"flag"
	"log"

	"closer_club_backend/internal/config"
	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/pkg/database"
	"closer_club_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "Admin", "admin display name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, true)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	if _, err := users.FindByEmail(*email); err == nil {
		log.Fatalf("User %s already exists", *email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Lookup failed: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := &model.User{
		Name:     *name,
		Email:    *email,
		Password: string(hashed),
		Role:     model.Admin,
	}
	if err := users.Create(admin); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Admin %s created with id %d", *email, admin.ID)
}
