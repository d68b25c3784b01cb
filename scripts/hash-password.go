package main

import (
	"fmt"
	"os"

	"github.com/bizdir/admin-server/internal/util"
)

// Prints a bcrypt hash for seeding an account row by hand.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	password := os.Args[1]
	if len(password) < 6 || len(password) > 72 {
		fmt.Fprintf(os.Stderr, "Error: password must be 6 to 72 characters\n")
		os.Exit(1)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
