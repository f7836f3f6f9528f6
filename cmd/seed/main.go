package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"go.uber.org/zap"

	"buyerleads/internal/config"
	"buyerleads/internal/database"
	"buyerleads/internal/domain/auth"
	"buyerleads/internal/domain/buyer"
	"buyerleads/internal/pkg/jwt"
	"buyerleads/internal/pkg/logger"
	"buyerleads/internal/repository"
)

var firstNames = []string{"Aarav", "Priya", "Rohan", "Simran", "Karan", "Neha", "Vikram", "Anjali", "Arjun", "Meera"}
var lastNames = []string{"Sharma", "Gill", "Mehta", "Kaur", "Verma", "Bansal", "Sandhu", "Kapoor"}

func main() {
	email := flag.String("email", "demo@example.com", "owner account for the seeded buyers")
	count := flag.Int("n", 25, "number of buyers to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.Must(cfg.LogLevel, cfg.AppEnv)
	defer lg.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db, lg); err != nil {
		lg.Fatal("migrate failed", zap.Error(err))
	}

	authSvc := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewMagicLinkRepository(db),
		auth.NewDevConsoleMailer(lg),
		jwt.New(cfg.JWTSecret, cfg.SessionTTL),
		auth.Config{AppURL: cfg.AppURL, LinkTTL: cfg.MagicLinkTTL, Pepper: cfg.MagicLinkPepper},
		lg,
	)
	owner, err := authSvc.EnsureUser(ctx, *email)
	if err != nil {
		lg.Fatal("ensure owner failed", zap.Error(err))
	}
	lg.Info("owner ready", zap.String("email", owner.Email), zap.String("id", owner.ID))

	buyers := buyer.NewService(repository.NewStore(db), nil, lg)
	created := 0
	for i := 0; i < *count; i++ {
		b, err := buyers.Create(ctx, sampleInput(i), owner.ID)
		if err != nil {
			lg.Warn("seed buyer rejected", zap.Int("index", i), zap.Error(err))
			continue
		}
		created++

		// give some leads a history beyond "created"
		if i%3 == 0 {
			status := buyer.Statuses[1+rand.Intn(len(buyer.Statuses)-1)]
			if _, err := buyers.Update(ctx, b.ID, &buyer.UpdateInput{Status: &status}, owner.ID); err != nil {
				lg.Warn("seed status update failed", zap.String("id", b.ID), zap.Error(err))
			}
		}
	}
	lg.Info("seed completed", zap.Int("buyers", created))
}

func sampleInput(i int) buyer.CreateInput {
	pt := buyer.PropertyTypes[rand.Intn(len(buyer.PropertyTypes))]
	in := buyer.CreateInput{
		FullName:     fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]),
		Phone:        fmt.Sprintf("98%08d", rand.Intn(100000000)),
		City:         buyer.Cities[rand.Intn(len(buyer.Cities))],
		PropertyType: pt,
		Purpose:      buyer.Purposes[rand.Intn(len(buyer.Purposes))],
		Timeline:     buyer.Timelines[rand.Intn(len(buyer.Timelines))],
		Source:       buyer.Sources[rand.Intn(len(buyer.Sources))],
	}
	if pt.NeedsBHK() {
		bhk := buyer.BHKs[rand.Intn(len(buyer.BHKs))]
		in.BHK = &bhk
	}
	if i%2 == 0 {
		email := fmt.Sprintf("lead%d@example.com", i)
		in.Email = &email
	}
	if i%4 != 3 {
		lo := (20 + rand.Intn(60)) * 100000
		hi := lo + (5+rand.Intn(40))*100000
		in.BudgetMin, in.BudgetMax = &lo, &hi
	}
	if i%5 == 0 {
		in.Tags = []string{"hot", "follow-up"}
	}
	return in
}
