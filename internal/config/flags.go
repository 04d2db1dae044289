package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-c/-config json file path with configs
//	-jwt-secret token signing secret
//	-token-issuer token issuer name
//	-access-ttl access token lifetime (e.g., "15m")
//	-refresh-ttl refresh token lifetime (e.g., "720h")
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-blob-bucket object storage bucket name
//	-blob-endpoint object storage endpoint override
//	-log-level log filter ("debug", "info", ...)
//	-server-url sync server base URL (client)
//	-vault-file local encrypted vault file path (client)
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var jwtSecret string
	var tokenIssuer string
	var accessTTL time.Duration
	var refreshTTL time.Duration
	var requestTimeout time.Duration
	var blobBucket string
	var blobEndpoint string
	var logLevel string
	var serverURL string
	var vaultFile string

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "Token signing secret")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&accessTTL, "access-ttl", 0, "Access token lifetime (e.g., 15m)")
	flag.DurationVar(&refreshTTL, "refresh-ttl", 0, "Refresh token lifetime (e.g., 720h)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&blobBucket, "blob-bucket", "", "Object storage bucket")
	flag.StringVar(&blobEndpoint, "blob-endpoint", "", "Object storage endpoint override")
	flag.StringVar(&logLevel, "log-level", "", "Log filter (debug, info, warn, error)")
	flag.StringVar(&serverURL, "server-url", "", "Sync server base URL (client)")
	flag.StringVar(&vaultFile, "vault-file", "", "Encrypted vault file path (client)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			JWTSecret:       jwtSecret,
			TokenIssuer:     tokenIssuer,
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
			LogLevel:        logLevel,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Blob: Blob{
				Bucket:   blobBucket,
				Endpoint: blobEndpoint,
			},
			Files: Files{
				VaultFilePath: vaultFile,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress: serverURL,
		},
		Workers:      Workers{},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns the empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
