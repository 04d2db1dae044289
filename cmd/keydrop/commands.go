// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/keydrop/keydrop/internal/adapter"
	"github.com/keydrop/keydrop/internal/client"
	"github.com/keydrop/keydrop/internal/crypto"
	"github.com/keydrop/keydrop/internal/vault"
)

const commandTimeout = 30 * time.Second

type cli struct {
	session *client.Session
	server  adapter.ServerAdapter
}

func (c *cli) run(command string, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "register":
		return c.register(ctx, args)
	case "login":
		return c.login(ctx, args)
	case "add":
		return c.add(args)
	case "get":
		return c.get(args)
	case "list":
		return c.list(args)
	case "rm":
		return c.remove(args)
	case "generate":
		return c.generate(args)
	case "sync":
		return c.sync(ctx)
	case "devices":
		return c.devices(ctx)
	case "revoke":
		return c.revoke(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	device := fs.String("device", defaultDeviceName(), "device name")
	deviceType := fs.String("type", "desktop", "device type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("register: -email is required")
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	if err = c.session.Register(ctx, client.RegisterParams{
		Email:      *email,
		Password:   password,
		DeviceName: *device,
		DeviceType: *deviceType,
	}); err != nil {
		return err
	}

	fmt.Println("account created, vault initialized")
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	salt := fs.String("salt", "", "base64 KDF salt (first login on a new device)")
	device := fs.String("device", defaultDeviceName(), "device name")
	deviceType := fs.String("type", "desktop", "device type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("login: -email is required")
	}

	password, err := promptPassword("Master password: ")
	if err != nil {
		return err
	}

	if err = c.session.Login(ctx, client.LoginParams{
		Email:      *email,
		Password:   password,
		Salt:       *salt,
		DeviceName: *device,
		DeviceType: *deviceType,
	}); err != nil {
		return err
	}

	if err = c.session.Sync(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: initial sync failed: %v\n", err)
	}

	fmt.Println("logged in")
	return nil
}

func (c *cli) add(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "entry name")
	username := fs.String("username", "", "username")
	url := fs.String("url", "", "site URL")
	notes := fs.String("notes", "", "free-form notes")
	category := fs.String("category", "", "category")
	generate := fs.Bool("generate", false, "generate the password instead of prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("add: -name is required")
	}

	if err := c.unlock(); err != nil {
		return err
	}

	var password string
	if *generate {
		generated, err := crypto.GeneratePassword(crypto.DefaultPasswordOptions())
		if err != nil {
			return err
		}
		password = generated
	} else {
		entered, err := promptPassword("Entry password: ")
		if err != nil {
			return err
		}
		password = entered
	}

	item := vault.NewItem(*name, *username, password)
	item.URL = *url
	item.Notes = *notes
	item.Category = *category

	id, err := c.session.AddItem(item)
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func (c *cli) get(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	show := fs.Bool("show", false, "print the password in the clear")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("get: exactly one item id expected")
	}

	if err := c.unlock(); err != nil {
		return err
	}

	item, err := c.session.GetItem(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("name:     %s\n", item.Name)
	fmt.Printf("username: %s\n", item.Username)
	if *show {
		fmt.Printf("password: %s\n", item.Password)
	} else {
		fmt.Printf("password: %s\n", strings.Repeat("*", 8))
	}
	if item.URL != "" {
		fmt.Printf("url:      %s\n", item.URL)
	}
	if item.Notes != "" {
		fmt.Printf("notes:    %s\n", item.Notes)
	}
	return nil
}

func (c *cli) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("q", "", "filter by name, username or URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.unlock(); err != nil {
		return err
	}

	if *query != "" {
		items, err := c.session.Search(*query)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%s  %-24s %s\n", item.ID, item.Name, item.Username)
		}
		return nil
	}

	items, err := c.session.Items()
	if err != nil {
		return err
	}
	for i := range items {
		fmt.Printf("%s  %-24s %s\n", items[i].ID, items[i].Name, items[i].Username)
	}
	return nil
}

func (c *cli) remove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: exactly one item id expected")
	}

	if err := c.unlock(); err != nil {
		return err
	}

	return c.session.RemoveItem(args[0])
}

func (c *cli) generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	length := fs.Int("length", 16, "password length")
	noDigits := fs.Bool("no-digits", false, "exclude digits")
	noSymbols := fs.Bool("no-symbols", false, "exclude symbols")
	noAmbiguous := fs.Bool("no-ambiguous", false, "exclude look-alike characters")
	passphrase := fs.Bool("passphrase", false, "generate a word passphrase instead")
	words := fs.Int("words", 6, "passphrase word count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *passphrase {
		out, err := crypto.GeneratePassphrase(crypto.PassphraseOptions{Words: *words, Separator: "-"})
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	opts := crypto.DefaultPasswordOptions()
	opts.Length = *length
	opts.Digits = !*noDigits
	opts.Symbols = !*noSymbols
	opts.ExcludeAmbiguous = *noAmbiguous

	out, err := crypto.GeneratePassword(opts)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (c *cli) sync(ctx context.Context) error {
	if err := c.unlock(); err != nil {
		return err
	}
	if err := c.session.RefreshTokens(ctx); err != nil {
		return err
	}
	if err := c.session.Sync(ctx); err != nil {
		return err
	}

	fmt.Printf("synced, version %d\n", c.session.SyncVersion())
	return nil
}

func (c *cli) devices(ctx context.Context) error {
	if err := c.unlock(); err != nil {
		return err
	}
	if err := c.session.RefreshTokens(ctx); err != nil {
		return err
	}

	devices, err := c.server.ListDevices(ctx)
	if err != nil {
		return err
	}

	for _, d := range devices {
		marker := " "
		if d.IsCurrent {
			marker = "*"
		}
		fmt.Printf("%s %s  %-24s %-8s last seen %s\n",
			marker, d.ID, d.DeviceName, d.DeviceType, d.LastSeenAt.Format(time.RFC3339))
	}
	return nil
}

func (c *cli) revoke(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("revoke: exactly one device id expected")
	}

	if err := c.unlock(); err != nil {
		return err
	}
	if err := c.session.RefreshTokens(ctx); err != nil {
		return err
	}

	if err := c.server.RevokeDevice(ctx, args[0]); err != nil {
		return err
	}

	fmt.Println("device revoked")
	return nil
}

func (c *cli) unlock() error {
	password, err := promptPassword("Master password: ")
	if err != nil {
		return err
	}
	return c.session.Unlock(password)
}

// promptPassword reads a password without echo. KEYDROP_PASSWORD
// overrides the prompt for scripting; when stdin is not a terminal the
// password is read as a plain line.
func promptPassword(prompt string) (string, error) {
	if fromEnv := os.Getenv("KEYDROP_PASSWORD"); fromEnv != "" {
		return fromEnv, nil
	}

	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptNewPassword() (string, error) {
	password, err := promptPassword("Master password: ")
	if err != nil {
		return "", err
	}
	if os.Getenv("KEYDROP_PASSWORD") != "" {
		return password, nil
	}

	confirm, err := promptPassword("Confirm master password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func defaultDeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "keydrop-cli"
	}
	return host
}
