// Command seed loads the demo dataset: categories, a few member profiles
// with avatars, and sample service listings. Run it once against a fresh
// project; Set calls make it safe to re-run.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/qolda/qolda-backend/internal/config"
	"github.com/qolda/qolda-backend/internal/logger"
	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/storage"
	"github.com/qolda/qolda-backend/internal/store"
)

var categories = []model.Category{
	{ID: "home-repair", Name: "Home Repair", Icon: "wrench", Description: "Fixes, installations and handy work"},
	{ID: "tutoring", Name: "Tutoring", Icon: "book-open", Description: "Lessons and homework help"},
	{ID: "gardening", Name: "Gardening", Icon: "flower", Description: "Yard work, planting and plant care"},
	{ID: "childcare", Name: "Childcare", Icon: "baby", Description: "Babysitting and after-school care"},
	{ID: "transport", Name: "Transport", Icon: "car", Description: "Rides, moving help and deliveries"},
	{ID: "cooking", Name: "Cooking", Icon: "chef-hat", Description: "Meal prep and baking"},
}

type demoUser struct {
	uid   string
	name  string
	email string
	bio   string
}

var demoUsers = []demoUser{
	{uid: "seed-aliya", name: "Aliya Nurlanovna", email: "aliya@example.com", bio: "Math tutor, 6 years of experience."},
	{uid: "seed-marat", name: "Marat Bekov", email: "marat@example.com", bio: "Handyman. No job too small."},
	{uid: "seed-dana", name: "Dana Serikova", email: "dana@example.com", bio: "Home cook, famous for baursaks."},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	if cfg.FirebaseProjectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID is required to seed")
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	fs, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
	if err != nil {
		logger.Log.Fatal("firestore client", zap.Error(err))
	}
	st := store.NewFirestore(fs)
	defer st.Close()

	var uploader storage.Uploader
	if cfg.StorageBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Log.Fatal("storage client", zap.Error(err))
		}
		uploader = gcs
	}

	for i := range categories {
		if err := st.Categories().Set(ctx, &categories[i]); err != nil {
			logger.Log.Fatal("seed category", zap.String("id", categories[i].ID), zap.Error(err))
		}
	}
	logger.Log.Info("seeded categories", zap.Int("count", len(categories)))

	httpc := resty.New().SetTimeout(15 * time.Second)
	for i, u := range demoUsers {
		avatar := fetchAvatar(ctx, httpc, uploader, u.uid, i)
		profile := &model.UserProfile{
			UID:       u.uid,
			Name:      u.name,
			Email:     u.email,
			Bio:       u.bio,
			AvatarURL: avatar,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := st.Users().Set(ctx, profile); err != nil {
			logger.Log.Fatal("seed user", zap.String("uid", u.uid), zap.Error(err))
		}
	}
	logger.Log.Info("seeded users", zap.Int("count", len(demoUsers)))

	listings := []model.Listing{
		{
			Title:       "Algebra and geometry tutoring",
			Category:    "tutoring",
			Description: "One-on-one sessions for grades 7-11, online or at my place.",
			PricingType: "fee", PricingDetails: "3000 KZT per hour",
			Location:     model.ListingLocation{Neighborhood: "Samal", City: "Almaty"},
			Availability: "Weekday evenings",
			Terms:        true,
			CreatedBy:    model.ListingOwner{UID: "seed-aliya", Email: "aliya@example.com"},
		},
		{
			Title:       "Furniture assembly and small repairs",
			Category:    "home-repair",
			Description: "Shelves, faucets, door locks. Own tools.",
			PricingType: "exchange", PricingDetails: "Happy to swap for home-cooked meals",
			Location:     model.ListingLocation{Neighborhood: "Koktem", City: "Almaty"},
			Availability: "Weekends",
			Terms:        true,
			CreatedBy:    model.ListingOwner{UID: "seed-marat", Email: "marat@example.com"},
		},
		{
			Title:       "Fresh baursaks for your event",
			Category:    "cooking",
			Description: "Batches of 50+, delivered warm.",
			PricingType: "free",
			Location:     model.ListingLocation{Neighborhood: "Orbita", City: "Almaty"},
			Availability: "Order two days ahead",
			Terms:        true,
			CreatedBy:    model.ListingOwner{UID: "seed-dana", Email: "dana@example.com"},
		},
	}
	for i := range listings {
		if _, err := st.Listings().Create(ctx, &listings[i]); err != nil {
			logger.Log.Fatal("seed listing", zap.String("title", listings[i].Title), zap.Error(err))
		}
	}
	logger.Log.Info("seeded listings", zap.Int("count", len(listings)))
}

// fetchAvatar downloads a placeholder portrait and re-hosts it in our bucket.
// Without a bucket it falls back to hotlinking the source.
func fetchAvatar(ctx context.Context, httpc *resty.Client, uploader storage.Uploader, uid string, n int) string {
	src := fmt.Sprintf("https://i.pravatar.cc/256?img=%d", n+10)
	if uploader == nil {
		return src
	}
	resp, err := httpc.R().SetContext(ctx).Get(src)
	if err != nil || resp.IsError() {
		logger.Log.Warn("avatar fetch failed, hotlinking", zap.String("uid", uid), zap.Error(err))
		return src
	}
	url, err := uploader.Upload(ctx, "avatars", uid+".jpg", "image/jpeg", bytes.NewReader(resp.Body()))
	if err != nil {
		logger.Log.Warn("avatar upload failed, hotlinking", zap.String("uid", uid), zap.Error(err))
		return src
	}
	return url
}
