// Command token prints a bearer token for a user id, signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"

	"ms-booking/internal/auth"
	"ms-booking/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	userID := flag.Int64("user", 0, "user id to issue the token for")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: token -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	token, err := auth.NewTokens(cfg.Auth.JWTSecret).Sign(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
