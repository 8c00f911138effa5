package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"artzip/internal/database"
	"artzip/internal/domain"
	"artzip/internal/pkg/logger"
)

const placeholderImage = "https://source.unsplash.com/random"

func main() {
	_ = godotenv.Load()

	dsn := envOr("DATABASE_URL", "artzip.db")

	lg, err := logger.New(envOr("APP_ENV", "dev"), "info")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(dsn, lg)
	if err != nil {
		lg.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// Cleanup old data in foreign key order
	lg.Info("cleaning old data")
	for _, table := range []string{"review_likes", "exhibition_likes", "review_photos", "reviews", "exhibitions", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			lg.Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return seed(tx, lg) }); err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}
	lg.Info("seed completed")
}

func seed(tx *gorm.DB, lg *zap.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []domain.User{
		{Email: "emily@artzip.io", Nickname: "Emily", ProfileImage: "https://joeschmoe.io/api/v1/random"},
		{Email: "noah@artzip.io", Nickname: "Noah"},
		{Email: "mina@artzip.io", Nickname: "Mina"},
	}
	for i := range users {
		users[i].PasswordHash = string(hash)
		if err := tx.Create(&users[i]).Error; err != nil {
			return fmt.Errorf("create user %s: %w", users[i].Email, err)
		}
		lg.Info("user created", zap.String("email", users[i].Email), zap.String("password", "password123"))
	}

	exhibitions := []domain.Exhibition{
		{Name: "Hand Art Korea", StartDate: "2022-10-11", EndDate: "2022-10-30"},
		{Name: "Monet: Light and Water", StartDate: "2021-12-01", EndDate: "2022-03-31"},
		{Name: "Rothko Rooms", StartDate: "2022-02-14", EndDate: "2022-05-01"},
		{Name: "Hockney Prints", StartDate: "2022-05-01", EndDate: "2022-08-15"},
	}
	for i := range exhibitions {
		exhibitions[i].Thumbnail = placeholderImage
		if err := tx.Create(&exhibitions[i]).Error; err != nil {
			return fmt.Errorf("create exhibition: %w", err)
		}
	}

	emily, noah, mina := users[0], users[1], users[2]
	reviews := []domain.Review{
		{
			UserID: emily.ID, ExhibitionID: exhibitions[0].ID, Date: "2022-03-22",
			Title: "Hand Art Korea review", Content: "Went to the Hand Art Korea show today. Loved it.",
			IsPublic: true, IsEdited: true,
			Photos: []domain.Photo{
				{ObjectKey: "seed/hand-art-1.jpg", Path: placeholderImage},
				{ObjectKey: "seed/hand-art-2.jpg", Path: placeholderImage},
			},
		},
		{
			UserID: emily.ID, ExhibitionID: exhibitions[0].ID, Date: "2022-03-20",
			Title: "Back at Hand Art Korea", Content: "Second visit, even better.",
			IsPublic: true,
		},
		{
			UserID: emily.ID, ExhibitionID: exhibitions[1].ID, Date: "2022-01-08",
			Title: "Water lilies", Content: "Private notes on the Monet rooms.",
			IsPublic: false,
		},
		{
			UserID: noah.ID, ExhibitionID: exhibitions[2].ID, Date: "2022-02-20",
			Title: "Color fields", Content: "Sat in front of one canvas for twenty minutes.",
			IsPublic: true,
		},
		{
			UserID: mina.ID, ExhibitionID: exhibitions[3].ID, Date: "2022-05-05",
			Title: "Pools and prints", Content: "Bright and playful.",
			IsPublic: true,
		},
	}
	for i := range reviews {
		if err := tx.Create(&reviews[i]).Error; err != nil {
			return fmt.Errorf("create review: %w", err)
		}
	}

	reviewLikes := []domain.ReviewLike{
		{UserID: noah.ID, ReviewID: reviews[0].ID},
		{UserID: mina.ID, ReviewID: reviews[0].ID},
		{UserID: emily.ID, ReviewID: reviews[3].ID},
		{UserID: emily.ID, ReviewID: reviews[4].ID},
	}
	if err := tx.Create(&reviewLikes).Error; err != nil {
		return fmt.Errorf("create review likes: %w", err)
	}

	exhibitionLikes := []domain.ExhibitionLike{
		{UserID: emily.ID, ExhibitionID: exhibitions[0].ID},
		{UserID: emily.ID, ExhibitionID: exhibitions[2].ID},
		{UserID: noah.ID, ExhibitionID: exhibitions[0].ID},
	}
	if err := tx.Create(&exhibitionLikes).Error; err != nil {
		return fmt.Errorf("create exhibition likes: %w", err)
	}

	lg.Info("fixtures created",
		zap.Int("users", len(users)),
		zap.Int("exhibitions", len(exhibitions)),
		zap.Int("reviews", len(reviews)),
	)
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
