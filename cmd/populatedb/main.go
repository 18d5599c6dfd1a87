// Command populatedb recreates the database schema and seeds it with a couple
// of demo users and posts. Pass -show to dump the current table contents
// instead of reseeding.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/cspring/microblog/config"
	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/utils"
)

func main() {
	show := flag.Bool("show", false, "dump table contents instead of reseeding")
	flag.Parse()

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{}, &models.PageView{})

	if *show {
		var users []models.User
		var posts []models.Post
		var comments []models.Comment
		db.Find(&users)
		db.Find(&posts)
		db.Find(&comments)
		fmt.Println("Users:")
		for _, u := range users {
			fmt.Printf("  %d %s (member since %s)\n", u.ID, u.Username, u.MemberSince.Format(time.RFC3339))
		}
		fmt.Println("Posts:")
		for _, p := range posts {
			fmt.Printf("  %d %q by %s, %d likes, likedBy=%v\n", p.ID, p.Title, p.Username, p.Likes, p.LikedBy)
		}
		fmt.Println("Comments:")
		for _, cm := range comments {
			fmt.Printf("  %d post=%d by %s: %s\n", cm.ID, cm.PostID, cm.Username, cm.Content)
		}
		return
	}

	// Fresh start: drop and recreate everything AutoMigrate just built.
	if err := db.Migrator().DropTable(&models.Comment{}, &models.Post{}, &models.User{}, &models.PageView{}); err != nil {
		utils.Sugar.Fatalf("drop tables: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.PageView{}); err != nil {
		utils.Sugar.Fatalf("migrate: %v", err)
	}

	users := []models.User{
		{Username: "TravelGuru", ExternalIDHash: "seed-external-1", MemberSince: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{Username: "FoodieFanatic", ExternalIDHash: "seed-external-2", MemberSince: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)},
	}
	posts := []models.Post{
		{
			Title:     "Europe!",
			Content:   "Just got back from an incredible trip through Europe.",
			Username:  "TravelGuru",
			Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			LikedBy:   models.UsernameSet{},
		},
		{
			Title:     "The Ultimate Guide to Homemade Pasta",
			Content:   "Learned how to make pasta from scratch.",
			Username:  "FoodieFanatic",
			Timestamp: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			LikedBy:   models.UsernameSet{},
		},
	}

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			utils.Sugar.Fatalf("seed user %s: %v", users[i].Username, err)
		}
	}
	for i := range posts {
		if err := db.Create(&posts[i]).Error; err != nil {
			utils.Sugar.Fatalf("seed post %q: %v", posts[i].Title, err)
		}
	}

	utils.Sugar.Info("Database populated with initial data")
}
