package main

import (
	"fmt"
	"os"

	"github.com/fixitnow/fixitnow-api/api/handlers"
)

// Quick utility to reset a user's password by hand
// Usage: go run scripts/fix_user_password.go <email> <password>
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/fix_user_password.go <email> <password>")
		fmt.Println("Example: go run scripts/fix_user_password.go asha@example.com n3w-passw0rd")
		os.Exit(1)
	}

	email, password := os.Args[1], os.Args[2]

	hashedPassword, err := handlers.HashPassword(password)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", hashedPassword)
	fmt.Printf("\nTo update in MongoDB, run:\n")
	fmt.Printf("db.users.updateOne(\n")
	fmt.Printf("  {\"email\": \"%s\"},\n", email)
	fmt.Printf("  {$set: {\"password\": \"%s\"}}\n", hashedPassword)
	fmt.Printf(")\n")
}
