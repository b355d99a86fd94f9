package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"quizroom/internal/config"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// demo account that owns the seeded question bank
const (
	demoEmail    = "demo@quizroom.local"
	demoPassword = "demo1234"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	users := repository.NewUserRepo(db)
	questions := repository.NewQuestionRepo(db)

	owner, err := users.GetByEmail(ctx, demoEmail)
	if err != nil {
		log.Fatalf("Failed to look up demo user: %v", err)
	}
	if owner == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		owner = &model.User{Name: "Demo Host", Email: demoEmail, PasswordHash: string(hash), EmailVerified: true}
		if err := users.Create(ctx, owner); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			log.Fatalf("Failed to create demo user: %v", err)
		}
	}

	seeded := 0
	for _, q := range demoQuestions() {
		q := q
		q.CreatorID = owner.ID
		q.CreatorName = owner.Name
		q.IsPublic = true
		if err := questions.Create(ctx, &q); err != nil {
			log.Fatalf("Failed to insert question %q: %v", q.Title, err)
		}
		seeded++
	}

	fmt.Printf("Seeded %d public questions for '%s' (password %s)\n", seeded, demoEmail, demoPassword)
}

func demoQuestions() []model.Question {
	return []model.Question{
		{
			Title:         "Largest planet",
			Content:       "Which planet is the largest in the solar system?",
			Options:       []string{"Earth", "Jupiter", "Saturn", "Neptune"},
			CorrectAnswer: 1,
			Difficulty:    model.DifficultyEasy,
			Category:      "science",
			Tags:          []string{"space"},
		},
		{
			Title:         "Boiling point",
			Content:       "At sea level, water boils at how many degrees Celsius?",
			Options:       []string{"90", "100", "110"},
			CorrectAnswer: 1,
			Difficulty:    model.DifficultyEasy,
			Category:      "science",
		},
		{
			Title:         "Longest river",
			Content:       "Which river is generally considered the longest in Africa?",
			Options:       []string{"Congo", "Niger", "Nile", "Zambezi"},
			CorrectAnswer: 2,
			Difficulty:    model.DifficultyMedium,
			Category:      "geography",
			Explanation:   "The Nile runs roughly 6,650 km.",
		},
		{
			Title:         "Prime numbers",
			Content:       "How many prime numbers are there below 20?",
			Options:       []string{"6", "7", "8", "9"},
			CorrectAnswer: 2,
			Difficulty:    model.DifficultyHard,
			Category:      "math",
			Tags:          []string{"numbers"},
		},
	}
}
