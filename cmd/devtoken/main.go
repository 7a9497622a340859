package main

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/config"
)

// Prints a bearer token for local testing against the api.
func main() {
	id := flag.Int64("id", 0, "student or company id")
	role := flag.String("role", string(auth.RoleStudent), "student or company")
	flag.Parse()

	cfg := config.Load()
	if cfg.Production() {
		log.Fatal("devtoken refuses to run with APP_ENV=production")
	}

	caller := auth.Caller{ID: *id, Role: auth.Role(*role)}
	if caller.ID <= 0 || !caller.Role.Valid() {
		log.Fatal("need -id > 0 and -role student|company")
	}
	tok, err := auth.Issue(caller, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	if err != nil {
		log.WithError(err).Fatal("issue token")
	}
	fmt.Println(tok.AccessToken)
}
