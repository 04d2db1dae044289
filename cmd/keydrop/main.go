package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/keydrop/keydrop/internal/adapter"
	"github.com/keydrop/keydrop/internal/client"
	"github.com/keydrop/keydrop/internal/config"
	"github.com/keydrop/keydrop/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const usage = `keydrop — zero-knowledge password manager

Usage: keydrop <command> [flags]

Commands:
  register   create a new account and vault
  login      log this device in to an existing account
  add        store a new credential
  get        show one credential
  list       list credentials
  rm         delete a credential
  generate   generate a password or passphrase
  sync       synchronize the vault with the server
  devices    list registered devices
  revoke     revoke a device
  version    print build information
`

func main() {
	// A missing .env is fine; env vars and flags still apply.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]

	if command == "version" {
		printBuildInfo()
		return
	}

	cfg, err := config.GetClientConfig()
	if err != nil {
		fatal("error getting configs: %v", err)
	}

	log := logger.NewClientLogger("keydrop-client", cfg.LogLevel)

	server, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		fatal("error creating server adapter: %v", err)
	}

	session := client.NewSession(server, cfg.Storage.VaultFilePath, log)
	cli := &cli{session: session, server: server}

	if err = cli.run(command, args); err != nil {
		fatal("%v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "keydrop: "+format+"\n", args...)
	os.Exit(1)
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
