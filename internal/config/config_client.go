package config

import (
	"fmt"
	"time"
)

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// VaultFilePath is where the encrypted vault file lives on disk.
	VaultFilePath string
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the client's background sync runs.
	SyncInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// LogLevel is the zerolog level filter for the client logger.
	LogLevel string
	// Adapter contains client transport addresses and timeouts.
	Adapter Adapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		LogLevel: cfg.App.LogLevel,
		Adapter:  cfg.Adapter,
		Storage: ClientStorage{
			VaultFilePath: cfg.Storage.Files.VaultFilePath,
		},
		Workers: ClientWorkers{SyncInterval: cfg.Workers.SweepInterval},
	}

	return clientCfg, clientCfg.validate()
}
