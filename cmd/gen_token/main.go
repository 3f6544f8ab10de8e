// Command gen_token prints a signed admin session token for curl-driven
// testing against a locally running console API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	email := flag.String("email", "admin@ddtours.com", "admin email claim")
	secret := flag.String("secret", os.Getenv("APP_SIGNING_SECRET"), "signing secret (defaults to APP_SIGNING_SECRET)")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "a signing secret is required (flag -secret or APP_SIGNING_SECRET)")
		os.Exit(1)
	}

	claims := jwt.MapClaims{
		"email": *email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(*ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(*secret))
	if err != nil {
		panic(err)
	}
	fmt.Println(signed)
}
