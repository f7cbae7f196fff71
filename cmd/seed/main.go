// Command seed fills the development database with demo data.
package main

import (
	"flag"
	"log"

	"guildboard/internal/bootstrap"
	"guildboard/internal/config"
	"guildboard/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "number of users to create")
	numCommunities := flag.Int("communities", 8, "number of communities to create")
	numJobs := flag.Int("jobs", 20, "number of job listings to create")
	postsPerUser := flag.Int("posts-per-user", 3, "posts each user writes")
	clean := flag.Bool("clean", false, "delete existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, _, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:       *numUsers,
		NumCommunities: *numCommunities,
		NumJobs:        *numJobs,
		PostsPerUser:   *postsPerUser,
		ShouldClean:    *clean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
