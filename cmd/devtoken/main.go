// cmd/devtoken mints a signed JWT for local testing against the API.
// Usage:
//
//	go run ./cmd/devtoken -business <uuid> -user <uuid> [-role owner] [-member <uuid>] [-perms pos,products]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"rifapos/internal/config"
	"rifapos/internal/identity"
	"rifapos/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	businessID := flag.String("business", "", "business UUID (required)")
	userID := flag.String("user", "", "user UUID (random when empty)")
	memberID := flag.String("member", "", "business member UUID (optional)")
	role := flag.String("role", identity.RoleOwner, "owner | employee | customer")
	perms := flag.String("perms", "", "comma-separated permissions: pos,products,reports,settings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	biz, err := uuid.Parse(*businessID)
	if err != nil {
		log.Fatal().Err(err).Msg("-business must be a UUID")
	}
	user := uuid.New()
	if *userID != "" {
		if user, err = uuid.Parse(*userID); err != nil {
			log.Fatal().Err(err).Msg("-user must be a UUID")
		}
	}

	claims := middleware.JWTClaims{
		UserID:      user.String(),
		BusinessID:  biz.String(),
		Role:        *role,
		Permissions: parsePerms(*perms),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)),
		},
	}
	if *memberID != "" {
		if _, err := uuid.Parse(*memberID); err != nil {
			log.Fatal().Err(err).Msg("-member must be a UUID")
		}
		claims.BusinessMemberID = *memberID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(signed)
}

func parsePerms(s string) identity.Permissions {
	var p identity.Permissions
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case identity.PermPOS:
			p.POS = true
		case identity.PermProducts:
			p.Products = true
		case identity.PermReports:
			p.Reports = true
		case identity.PermSettings:
			p.Settings = true
		}
	}
	return p
}
