package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PairKey canonicalises an unordered pair of user ids.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

var seedTables = []string{
	"notifications", "messages", "conversation_participants", "conversations",
	"reports", "blocks", "matches", "dislikes", "likes", "users",
}

// SeedTestData resets the database and populates it with demo users and relationships.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 active users (10 male, 10 female) around Manila with hashed passwords,
//     ages 22..41, each preferring the opposite gender within 18..45 and 50km.
//  3. Generates ~70% likes / 30% dislikes between opposite-gender pairs; every 3rd
//     like is reciprocated and materialised as a match.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, pref := GenderMale, GenderFemale
		if i > 10 {
			gender, pref = GenderFemale, GenderMale
		}
		lon := 121.05 + r.Float64()*0.2 - 0.1
		lat := 14.58 + r.Float64()*0.2 - 0.1

		users = append(users, User{
			ID:               NewID(),
			Email:            fmt.Sprintf("user%d@example.com", i),
			PasswordHash:     string(hash),
			FirstName:        fmt.Sprintf("User%d", i),
			LastName:         "Demo",
			Gender:           gender,
			Birthday:         today.AddDate(-(22 + r.Intn(20)), -r.Intn(12), 0),
			Longitude:        &lon,
			Latitude:         &lat,
			GenderPreference: []Gender{pref},
			MinAge:           18,
			MaxAge:           45,
			MaxDistanceKm:    50,
			Status:           StatusActive,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Println("Seeded 20 users.")

	counter := 0
	for _, actor := range users {
		for j := 0; j < 6; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			if r.Intn(100) >= 70 {
				dislike := Dislike{ID: NewID(), UserID: actor.ID, DislikedUserID: target.ID}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dislike).Error; err != nil {
					return fmt.Errorf("failed to seed dislike: %w", err)
				}
				continue
			}

			like := Like{ID: NewID(), UserID: actor.ID, LikedUserID: target.ID}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			// every 3rd like becomes mutual
			if counter%3 == 0 {
				back := Like{ID: NewID(), UserID: target.ID, LikedUserID: actor.ID}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&back)

				match := Match{ID: NewID(), UserID: actor.ID, MatchedUserID: target.ID, PairKey: PairKey(actor.ID, target.ID)}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match)
			}
			counter++
		}
	}

	return nil
}
