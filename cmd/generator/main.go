package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/logger"
	"stagepass/internal/models"
	"stagepass/internal/repository"
	"stagepass/internal/service"

	"github.com/shopspring/decimal"
)

var (
	eventCount = flag.Int("events", 3, "Number of seated events to generate")
	sections   = flag.Int("sections", 2, "Sections in the generated venue layout")
	rows       = flag.Int("rows", 5, "Rows per section")
	seatsPer   = flag.Int("seats", 10, "Seats per row")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting data generator...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, nil)

	if err := generate(context.Background(), repos, services); err != nil {
		slog.Error("Failed to generate data", "error", err)
		os.Exit(1)
	}

	slog.Info("Data generation completed successfully!")
}

func generate(ctx context.Context, repos *repository.Repositories, services *service.Services) error {
	organizer, err := ensureUser(ctx, repos, "organizer@stagepass.local", "organizer", "Olga", "Organizer", false)
	if err != nil {
		return err
	}
	if _, err := ensureUser(ctx, repos, "gate@stagepass.local", "gate", "Gleb", "Gatekeeper", true); err != nil {
		return err
	}
	if _, err := ensureUser(ctx, repos, "buyer@stagepass.local", "buyer", "Boris", "Buyer", false); err != nil {
		return err
	}

	venue := &models.Venue{
		Name:    "Stage Hall",
		Address: "1 Theatre Lane",
		City:    "Almaty",
	}
	if err := repos.Venues.Create(ctx, venue); err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	layout := buildLayout(*sections, *rows, *seatsPer)
	if err := repos.Venues.SaveLayout(ctx, &models.SeatingLayout{VenueID: venue.ID, LayoutData: layout}); err != nil {
		return fmt.Errorf("failed to save venue layout: %w", err)
	}
	slog.Info("Created venue with layout", "venue_id", venue.ID, "seats", layout.SeatCount())

	principal := models.Principal{UserID: organizer.ID}
	for i := 0; i < *eventCount; i++ {
		start := time.Now().Add(time.Duration(24*(i+1)) * time.Hour)
		end := start.Add(3 * time.Hour)

		response, err := services.Events.Create(ctx, principal, &models.CreateEventRequest{
			Title:     fmt.Sprintf("Generated Show #%d", i+1),
			StartDate: start,
			EndDate:   &end,
			VenueID:   &venue.ID,
			Price:     decimal.NewFromInt(int64(5000 + i*1000)),
		})
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		earlyEnd := start.Add(-12 * time.Hour)
		if _, err := services.Pricing.CreateTier(ctx, principal, response.ID, &models.PricingTierRequest{
			Name:              "Early Bird",
			Price:             decimal.NewFromInt(int64(3000 + i*1000)),
			EndDate:           &earlyEnd,
			QuantityThreshold: 20,
		}); err != nil {
			return fmt.Errorf("failed to create pricing tier: %w", err)
		}

		slog.Info("Created event",
			"event_id", response.ID, "seats_created", response.SeatsCreated)
	}

	return nil
}

func ensureUser(ctx context.Context, repos *repository.Repositories, email, password, firstName, surname string, staff bool) (*models.User, error) {
	existing, err := repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}
	if existing != nil {
		return existing, nil
	}

	hash := sha256.Sum256([]byte(password))
	user := &models.User{
		Email:        email,
		PasswordHash: fmt.Sprintf("%x", hash),
		FirstName:    firstName,
		Surname:      surname,
		IsStaff:      staff,
		IsActive:     true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}

	slog.Info("Created user", "email", email, "staff", staff)
	return user, nil
}

func buildLayout(sections, rows, seats int) models.LayoutData {
	layout := models.LayoutData{Sections: make(map[string]models.SectionLayout, sections)}
	for s := 0; s < sections; s++ {
		sectionName := fmt.Sprintf("%c", 'A'+s)
		section := models.SectionLayout{Rows: make(map[string][]models.SeatNumber, rows)}
		for r := 1; r <= rows; r++ {
			numbers := make([]models.SeatNumber, 0, seats)
			for n := 1; n <= seats; n++ {
				numbers = append(numbers, models.SeatNumber(fmt.Sprintf("%d", n)))
			}
			section.Rows[fmt.Sprintf("%d", r)] = numbers
		}
		layout.Sections[sectionName] = section
	}
	return layout
}
