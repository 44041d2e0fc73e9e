package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Philip-857-bit/feedback/internal/config"
	"github.com/Philip-857-bit/feedback/internal/database"
	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/Philip-857-bit/feedback/internal/repository"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		printMenu()
		fmt.Print("Select option: ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			createDatabase(cfg)
		case "2":
			migrateSchema(cfg)
		case "3":
			truncateFeedback(cfg)
		case "4":
			seedFeedback(cfg)
		case "5":
			hashAdminPassword(reader)
		case "6":
			dropDatabase(cfg)
		case "0":
			fmt.Println("Bye.")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}

		fmt.Println()
		fmt.Print("Press Enter to continue...")
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("     FEEDBACK DATABASE CLI MANAGER")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("1. Create database (if missing) + migrate schema")
	fmt.Println("2. Migrate schema")
	fmt.Println("3. Truncate feedback table")
	fmt.Println("4. Seed dummy feedback entries")
	fmt.Println("5. Generate bcrypt hash for ADMIN_PASSWORD_HASH")
	fmt.Println("6. Drop database")
	fmt.Println("0. Exit")
}

// openMaintenanceDB connects to the postgres maintenance database so the
// application database itself can be created or dropped.
func openMaintenanceDB(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.SSLMode,
	)
	return sql.Open("postgres", dsn)
}

func createDatabase(cfg *config.Config) {
	db, err := openMaintenanceDB(cfg)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		return
	}
	defer db.Close()

	var exists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database.Name).Scan(&exists)
	if err != nil {
		fmt.Printf("Failed to check database: %v\n", err)
		return
	}

	if exists {
		fmt.Printf("Database %q already exists\n", cfg.Database.Name)
	} else {
		if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %q", cfg.Database.Name)); err != nil {
			fmt.Printf("Failed to create database: %v\n", err)
			return
		}
		fmt.Printf("Database %q created\n", cfg.Database.Name)
	}

	migrateSchema(cfg)
}

func migrateSchema(cfg *config.Config) {
	if _, err := database.Connect(cfg); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		return
	}
	fmt.Println("Schema migrated")
}

func truncateFeedback(cfg *config.Config) {
	gdb, err := database.Connect(cfg)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		return
	}
	if err := gdb.Exec("TRUNCATE TABLE feedback").Error; err != nil {
		fmt.Printf("Failed to truncate: %v\n", err)
		return
	}
	fmt.Println("Feedback table truncated")
}

func seedFeedback(cfg *config.Config) {
	gdb, err := database.Connect(cfg)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		return
	}
	repo := repository.NewFeedbackRepository(gdb)

	five := 5
	three := 3
	seeds := []domain.Feedback{
		{
			UserType: domain.UserTypeAttendee,
			Name:     "Dana Okafor",
			Email:    "dana.okafor@example.com",
			Rating:   &five,
			Feedback: "Loved the keynote and the food trucks outside the main hall.",
			Consent:  true,
		},
		{
			UserType: domain.UserTypeBrand,
			Name:     "Northline Coffee",
			Email:    "events@northlinecoffee.example.com",
			Rating:   &three,
			Feedback: "Booth placement was good but the power outlets kept tripping.",
			Consent:  true,
		},
		{
			UserType:    domain.UserTypeAttendee,
			Name:        "Anonymous",
			IsAnonymous: true,
			Email:       "throwaway@example.com",
			Feedback:    "Queue for registration took almost forty minutes.",
			Consent:     true,
		},
	}

	for i := range seeds {
		if err := repo.Create(&seeds[i]); err != nil {
			fmt.Printf("Failed to seed entry %d: %v\n", i+1, err)
			return
		}
	}
	fmt.Printf("Seeded %d feedback entries\n", len(seeds))
}

func hashAdminPassword(reader *bufio.Reader) {
	fmt.Print("Password to hash: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)
	if password == "" {
		fmt.Println("Empty password, aborting")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Failed to hash: %v\n", err)
		return
	}
	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}

func dropDatabase(cfg *config.Config) {
	fmt.Printf("This drops database %q. Type the database name to confirm: ", cfg.Database.Name)
	reader := bufio.NewReader(os.Stdin)
	confirm, _ := reader.ReadString('\n')
	if strings.TrimSpace(confirm) != cfg.Database.Name {
		fmt.Println("Confirmation mismatch, aborting")
		return
	}

	db, err := openMaintenanceDB(cfg)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		return
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %q", cfg.Database.Name)); err != nil {
		fmt.Printf("Failed to drop database: %v\n", err)
		return
	}
	fmt.Printf("Database %q dropped\n", cfg.Database.Name)
}
