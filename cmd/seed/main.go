// Command seed creates accounts and departments directly in the database.
// Registration over HTTP is enough for citizens; operators use seed to
// bootstrap the first administrators and department accounts.
//
//	seed user --email ops@city.gov --password secret --name "Ops" --role ADMIN
//	seed user --email water@city.gov --password secret --role DEPARTMENT --department "Water Works Department"
//	seed department --name "Water Works Department" --description "Supply and leaks"
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/civicpulse/grievance-server/internal/config"
	"github.com/civicpulse/grievance-server/internal/database"
	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	switch args[0] {
	case "user":
		var req models.RegisterRequest
		flagSet := pflag.NewFlagSet("seed user", pflag.ContinueOnError)
		flagSet.StringVar(&req.Email, "email", "", "account email (required)")
		flagSet.StringVar(&req.Password, "password", "", "account password (required)")
		flagSet.StringVar(&req.DisplayName, "name", "", "display name")
		flagSet.StringVar(&req.Role, "role", "CITIZEN", "CITIZEN, ADMIN or DEPARTMENT")
		flagSet.StringVar(&req.Department, "department", "", "department served (DEPARTMENT role only)")
		if err := flagSet.Parse(args[1:]); err != nil {
			return err
		}

		// Seeding never issues tokens, so no codec is needed.
		userSvc := services.NewUserService(database.NewUserRepository(db), nil, cfg.BcryptCost, sugar)
		userSvc.AllowPrivilegedRegistration(true)
		u, err := userSvc.Register(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("created user %d (%s, %s)\n", u.ID, u.Email, u.Role)

	case "department":
		var name, description string
		flagSet := pflag.NewFlagSet("seed department", pflag.ContinueOnError)
		flagSet.StringVar(&name, "name", "", "department name (required)")
		flagSet.StringVar(&description, "description", "", "short description")
		if err := flagSet.Parse(args[1:]); err != nil {
			return err
		}

		// The server cache expires on its own TTL.
		deptSvc := services.NewDepartmentService(database.NewDepartmentRepository(db), nil, sugar)
		d, err := deptSvc.Create(ctx, name, description)
		if err != nil {
			return err
		}
		fmt.Printf("created department %d (%s)\n", d.ID, d.Name)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: seed <user|department> [flags]")
}
