package users

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/db/bunx"
	"github.com/classpulse/embedapi/internal/db/models"
	"github.com/classpulse/embedapi/internal/repository"
)

var (
	emailFlag          string
	passwordFlag       string
	roleFlag           string
	registrationIDFlag string
	stdinFlag          bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new portal user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}
		if roleFlag != "teacher" && roleFlag != "student" {
			return fmt.Errorf("--role must be \"teacher\" or \"student\", got %q", roleFlag)
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		userRepo := repository.NewBunUserRepository(db)

		existing, err := userRepo.GetByEmail(ctx, emailFlag)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("user with email %q already exists", emailFlag)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := &models.User{
			ID:           bunx.NewUUIDv7(),
			Email:        emailFlag,
			PasswordHash: hash,
			Role:         roleFlag,
		}
		if registrationIDFlag != "" {
			user.RegistrationID = &registrationIDFlag
		}

		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Println("User created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Email: %s\n", user.Email)
		fmt.Printf("Role: %s\n", user.Role)
		if user.RegistrationID != nil {
			fmt.Printf("Registration ID: %s\n", *user.RegistrationID)
		}
		fmt.Println("----------------------------------------")

		return nil
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable a portal user account",
	Long:  `Marks the account disabled. Logins fail immediately; tokens already issued remain valid until expiry unless revoked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		userRepo := repository.NewBunUserRepository(db)

		user, err := userRepo.GetByEmail(ctx, emailFlag)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if user.DisabledAt != nil {
			fmt.Printf("User %s is already disabled (since %s)\n", user.Email, user.DisabledAt.Format(time.RFC3339))
			return nil
		}

		now := time.Now()
		user.DisabledAt = &now
		if err := userRepo.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to disable user: %w", err)
		}

		fmt.Printf("User %s disabled\n", user.Email)
		return nil
	},
}
