// Command deploy runs the one-shot maintenance steps: schema
// migration, canonical role seeding and the self-follow backfill.
// With -fake N it also generates fixture users and posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

const fixturePassword = "password"

func main() {
	fake := flag.Int("fake", 0, "number of fixture users (and posts each) to generate")
	flag.Parse()

	log.Println("Starting deploy script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Follow{},
		&model.Post{},
		&model.Comment{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	followRepo := repository.NewFollowRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)

	if err := service.NewRoleService(roleRepo).InsertRoles(ctx); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}
	log.Println("Canonical roles seeded")

	added, err := followRepo.AddSelfFollows(ctx)
	if err != nil {
		log.Fatalf("Failed to backfill self-follows: %v", err)
	}
	log.Printf("Self-follow backfill completed, %d edges added", added)

	if *fake > 0 {
		if err := generateFixtures(ctx, *fake, roleRepo, userRepo, followRepo, postRepo); err != nil {
			log.Fatalf("Failed to generate fixtures: %v", err)
		}
		log.Printf("Generated %d fixture users", *fake)
	}

	log.Println("Deploy completed")
}

func generateFixtures(
	ctx context.Context,
	count int,
	roleRepo repository.RoleRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
) error {
	defaultRole, err := roleRepo.FindDefault(ctx)
	if err != nil {
		return fmt.Errorf("find default role: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(fixturePassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < count; i++ {
		suffix := uuid.NewString()[:8]
		username := fmt.Sprintf("user_%s", suffix)
		email := fmt.Sprintf("%s@example.com", username)
		memberSince := time.Now().AddDate(0, 0, -rng.Intn(365))

		user := &model.User{
			Email:        email,
			Username:     username,
			PasswordHash: string(hashed),
			Confirmed:    true,
			RoleID:       defaultRole.ID,
			AvatarHash:   model.GravatarHash(email),
			MemberSince:  memberSince,
			LastSeen:     time.Now(),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create fixture user %s: %w", username, err)
		}
		if err := followRepo.Create(ctx, user.ID, user.ID); err != nil {
			return fmt.Errorf("self-follow fixture user %s: %w", username, err)
		}

		post := &model.Post{
			Body:     fmt.Sprintf("Hello from %s. Visit https://example.com/%s for more.", username, suffix),
			AuthorID: user.ID,
		}
		if err := postRepo.Create(ctx, post); err != nil {
			return fmt.Errorf("create fixture post for %s: %w", username, err)
		}
	}
	return nil
}
