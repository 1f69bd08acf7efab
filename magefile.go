//go:build mage
// +build mage

package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// secrets are pushed to the backend project so the hosted functions share doorbell's settings.
var secrets = []string{
	"SUPABASE_URL",
	"SUPABASE_SERVICE_ROLE_KEY",
	"SITE_URL",
	"DOORBELL_SEND_MODE",
	"SMTP_HOSTNAME",
	"SMTP_PORT",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"SMTP_FROM",
}

func loadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// projectRef is the first label of the backend host: https://abc.supabase.co is abc.
func projectRef() (string, error) {
	raw := os.Getenv("SUPABASE_URL")
	if raw == "" {
		return "", fmt.Errorf("SUPABASE_URL must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing SUPABASE_URL: %w", err)
	}
	ref, _, _ := strings.Cut(u.Hostname(), ".")
	if ref == "" {
		return "", fmt.Errorf("no project ref in %q", raw)
	}
	return ref, nil
}

// Build builds the doorbell binary.
func Build() error {
	fmt.Println("Building doorbell...")
	return sh.Run("go", "build", "-o", "bin/doorbell", ".")
}

// Linux builds the binary that is shipped to the functions host.
func Linux() error {
	env := map[string]string{"GOOS": "linux", "GOARCH": "amd64", "CGO_ENABLED": "0"}
	return sh.RunWith(env, "go", "build", "-o", "bin/doorbell-linux-amd64", ".")
}

// Generate regenerates the gomock mocks.
func Generate() error {
	fmt.Println("Running mockgen...")
	return sh.RunV("go", "generate", "./...")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Secrets pushes runtime settings found in the environment (or .env) to the backend project.
func Secrets() error {
	if err := loadEnv(); err != nil {
		return err
	}
	ref, err := projectRef()
	if err != nil {
		return err
	}
	args := []string{"supabase", "secrets", "set", "--project-ref=" + ref}
	for _, name := range secrets {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			args = append(args, name+"="+value)
		}
	}
	fmt.Printf("Setting %d secrets on %s...\n", len(args)-4, ref)
	return sh.Run("npx", args...)
}

// Deploy builds the linux binary and pushes the runtime secrets. Each function
// name is then served by the same binary under /functions/v1.
func Deploy() error {
	mg.SerialDeps(Test, Linux, Secrets)
	fmt.Println("Deployment completed.")
	return nil
}
