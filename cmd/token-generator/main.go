// Command token-generator mints a signed access token for a given
// account ID, for local development and manual API testing.
//
// Usage:
//
//	ELIMU_AUTH_JWT_SECRET=... ELIMU_DATABASE_URL=... token-generator <account-id>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/config"
	"github.com/kmuhangi/elimu-api/internal/service/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: token-generator <account-id>")
		os.Exit(2)
	}

	accountID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid account ID: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build JWT service: %v\n", err)
		os.Exit(1)
	}

	token, err := jwtService.GenerateToken(context.Background(), accountID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
