package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"resourcedesk/internal/api"
	"resourcedesk/internal/lifecycle"
	"resourcedesk/pkg/config"
)

// Mints a viewer token the way the gateway would, for poking a local API.
func main() {
	var (
		sub  = flag.String("sub", "dev-admin", "viewer id")
		name = flag.String("name", "", "viewer display name")
		role = flag.String("role", "admin", "admin or requester")
		ttl  = flag.Duration("ttl", time.Hour, "token lifetime")
		url  = flag.String("url", "", "optional console url to GET with the token, e.g. http://localhost:8081/v1/bookings/records")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Viewer.TokenSecret == "" {
		fmt.Fprintln(os.Stderr, "missing VIEWER_TOKEN_SECRET")
		os.Exit(2)
	}
	r, err := lifecycle.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	now := time.Now()
	claims := api.ViewerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *sub,
			Audience:  []string{cfg.Viewer.TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
		Name: *name,
		Role: string(r),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Viewer.TokenSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}

	if *url == "" {
		fmt.Println(token)
		return
	}

	req, err := http.NewRequest(http.MethodGet, *url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	c := &http.Client{Timeout: 10 * time.Second}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}
