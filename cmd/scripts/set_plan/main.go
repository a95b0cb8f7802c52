// set_plan changes the billing plan of one account.
//
//	go run ./cmd/scripts/set_plan -email alice@example.com -plan custom_5
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	email := flag.String("email", "", "account email")
	plan := flag.String("plan", "", "free, paid or custom_<N>")
	flag.Parse()

	if *email == "" || *plan == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := models.InitDB(&cfg.Database, false); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	if strings.HasPrefix(*plan, "custom_") && services.ProjectLimit(*plan) == 1 && *plan != "custom_1" {
		fmt.Printf("Warning: %q does not end in a number, it will allow 1 project\n", *plan)
	}

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).First(&user).Error; err != nil {
		log.Fatalf("User %s not found: %v", *email, err)
	}

	var owned int64
	db.Model(&models.Project{}).Where("owner_id = ?", user.ID).Count(&owned)

	fmt.Printf("%-30s %-12s -> %s\n", user.Email, user.Plan, *plan)
	if err := db.Model(&user).Update("plan", *plan).Error; err != nil {
		log.Fatalf("Failed to update plan: %v", err)
	}

	limit := services.ProjectLimit(*plan)
	fmt.Printf("Owns %d project(s), plan allows %d\n", owned, limit)
	if owned > int64(limit) {
		fmt.Println("Existing projects are kept; new ones are refused until the count drops below the limit.")
	}
}
