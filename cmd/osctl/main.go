// osctl is the operational companion to the API server: it creates the
// database schema and seeds the first accounts.
package main

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/osfield/osfield/internal/auth"
)

//go:embed schema.sql
var schemaSQL string

var (
	dbConnString string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbConnString, "db", "d", "", "Database connection string")

	seedAdminCmd.Flags().String("name", "Administrador", "Admin display name")
	seedAdminCmd.Flags().String("email", "", "Admin email (required)")
	seedAdminCmd.Flags().String("password", "", "Admin password (required)")
	seedAdminCmd.MarkFlagRequired("email")
	seedAdminCmd.MarkFlagRequired("password")

	seedOrgCmd.Flags().String("name", "", "Organization name (required)")
	seedOrgCmd.Flags().String("owner-name", "", "Owner display name (required)")
	seedOrgCmd.Flags().String("owner-email", "", "Owner email (required)")
	seedOrgCmd.Flags().String("owner-password", "", "Owner password (required)")
	seedOrgCmd.MarkFlagRequired("name")
	seedOrgCmd.MarkFlagRequired("owner-name")
	seedOrgCmd.MarkFlagRequired("owner-email")
	seedOrgCmd.MarkFlagRequired("owner-password")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(seedOrgCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "osctl",
	Short: "osctl manages the service order platform database",
	Long:  `osctl initializes the database schema and seeds administrative accounts.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema",
	Long:  `Create all tables and indexes. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		db := openDB()
		defer db.Close()

		if _, err := db.Exec(schemaSQL); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		fmt.Println("Schema initialized successfully")
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create a platform admin account",
	Long: `Create a platform admin. Admins are not tied to a real tenant, so a
placeholder organization is created to satisfy the schema.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		db := openDB()
		defer db.Close()

		hash, err := auth.NewPasswordHasher().Hash(password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		orgID := uuid.New()
		userID := uuid.New()

		tx, err := db.Begin()
		if err != nil {
			log.Fatalf("Failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			`INSERT INTO organizations (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			orgID, "Platform", userID, time.Now().UTC()); err != nil {
			log.Fatalf("Failed to create platform organization: %v", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO users (id, organization_id, name, email, password_hash, role, see_all_orders, active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, 'admin', TRUE, TRUE, $6, $6)`,
			userID, orgID, name, email, hash, time.Now().UTC()); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}

		if err := tx.Commit(); err != nil {
			log.Fatalf("Failed to commit: %v", err)
		}

		fmt.Printf("Admin %s created (%s)\n", email, userID)
	},
}

var seedOrgCmd = &cobra.Command{
	Use:   "seed-org",
	Short: "Create an organization with its owner account",
	Run: func(cmd *cobra.Command, args []string) {
		orgName, _ := cmd.Flags().GetString("name")
		ownerName, _ := cmd.Flags().GetString("owner-name")
		ownerEmail, _ := cmd.Flags().GetString("owner-email")
		ownerPassword, _ := cmd.Flags().GetString("owner-password")

		db := openDB()
		defer db.Close()

		hash, err := auth.NewPasswordHasher().Hash(ownerPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		orgID := uuid.New()
		userID := uuid.New()

		tx, err := db.Begin()
		if err != nil {
			log.Fatalf("Failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			`INSERT INTO organizations (id, name, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			orgID, orgName, userID, time.Now().UTC()); err != nil {
			log.Fatalf("Failed to create organization: %v", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO users (id, organization_id, name, email, password_hash, role, see_all_orders, active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, 'owner', TRUE, TRUE, $6, $6)`,
			userID, orgID, ownerName, ownerEmail, hash, time.Now().UTC()); err != nil {
			log.Fatalf("Failed to create owner user: %v", err)
		}

		if err := tx.Commit(); err != nil {
			log.Fatalf("Failed to commit: %v", err)
		}

		fmt.Printf("Organization %s created (%s), owner %s (%s)\n", orgName, orgID, ownerEmail, userID)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("osctl v1.0.0")
	},
}

func openDB() *sql.DB {
	if dbConnString == "" {
		log.Fatal("Database connection string is required")
	}

	db, err := sql.Open("postgres", dbConnString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	return db
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
