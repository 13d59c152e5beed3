package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

func RunCreateUser() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: create-user <email> <password> [professional|admin]")
		os.Exit(1)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[2]))
	password := os.Args[3]
	role := db.RoleProfessional
	if len(os.Args) > 4 {
		role = os.Args[4]
	}
	if role != db.RoleProfessional && role != db.RoleAdmin {
		fmt.Printf("unknown role %q\n", role)
		os.Exit(1)
	}
	if fe := validator.ValidateRegistration(email, password); len(fe) > 0 {
		fmt.Printf("invalid input: %v\n", fe)
		os.Exit(1)
	}

	dbConn, err := initDB()
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	queries := db.New(dbConn)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("failed to hash password: %v\n", err)
		os.Exit(1)
	}

	// criado pela linha de comando já nasce verificado
	_, err = queries.CreateUser(context.Background(), db.CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsVerified:   true,
	})
	if err != nil {
		fmt.Printf("failed to create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("User %s (%s) created successfully\n", email, role)
}
