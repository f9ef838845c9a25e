package config

import (
	"os"
	"testing"
	"time"

	"ontoforge.io/ontoforge/internal/idgen"
)

func TestLoad_Defaults(t *testing.T) {
	// Ensure no env vars interfere
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("IDGEN_MACHINE_ID")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if !cfg.Server.AllowCredentials {
		t.Errorf("Server.AllowCredentials = %v, want true", cfg.Server.AllowCredentials)
	}
	if cfg.Server.UnsafeAllowAllOrigins {
		t.Errorf("Server.UnsafeAllowAllOrigins = %v, want false", cfg.Server.UnsafeAllowAllOrigins)
	}

	// Log defaults
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}

	// ID generator defaults
	if cfg.IDGen.MachineID != 0 {
		t.Errorf("IDGen.MachineID = %d, want 0", cfg.IDGen.MachineID)
	}
	if cfg.IDGen.Epoch != idgen.DefaultEpoch {
		t.Errorf("IDGen.Epoch = %d, want %d", cfg.IDGen.Epoch, idgen.DefaultEpoch)
	}

	// Catalog defaults
	if !cfg.Catalog.IncludeBase {
		t.Error("Catalog.IncludeBase = false, want true")
	}
	if len(cfg.Catalog.Paths) != 0 {
		t.Errorf("Catalog.Paths = %v, want empty", cfg.Catalog.Paths)
	}

	// Worker pool defaults
	if cfg.Worker.GeneralPoolSize != 32 {
		t.Errorf("Worker.GeneralPoolSize = %d, want 32", cfg.Worker.GeneralPoolSize)
	}
	if cfg.Worker.ExtractPoolSize != 64 {
		t.Errorf("Worker.ExtractPoolSize = %d, want 64", cfg.Worker.ExtractPoolSize)
	}

	if cfg.API.MaxMintBatch != 1000 {
		t.Errorf("API.MaxMintBatch = %d, want 1000", cfg.API.MaxMintBatch)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("IDGEN_MACHINE_ID", "17")
	t.Setenv("CATALOG_PATHS", "schemas/common.yaml,schemas/lease.yaml")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IDGen.MachineID != 17 {
		t.Errorf("IDGen.MachineID = %d, want 17", cfg.IDGen.MachineID)
	}
	if got := len(cfg.Catalog.Paths); got != 2 {
		t.Fatalf("len(Catalog.Paths) = %d, want 2", got)
	}
	if cfg.Catalog.Paths[1] != "schemas/lease.yaml" {
		t.Errorf("Catalog.Paths[1] = %q, want schemas/lease.yaml", cfg.Catalog.Paths[1])
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_InvalidMachineIDFromEnv(t *testing.T) {
	t.Setenv("IDGEN_MACHINE_ID", "1024")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want machine id validation error")
	}
}

func TestLoad_ServerCORSFlagsFromEnv(t *testing.T) {
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://example.com")
	t.Setenv("SERVER_ALLOW_CREDENTIALS", "false")
	t.Setenv("SERVER_UNSAFE_ALLOW_ALL_ORIGINS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(cfg.Server.AllowedOrigins); got != 1 {
		t.Fatalf("len(Server.AllowedOrigins) = %d, want 1", got)
	}
	if got := cfg.Server.AllowedOrigins[0]; got != "https://example.com" {
		t.Fatalf("Server.AllowedOrigins[0] = %q, want %q", got, "https://example.com")
	}
	if cfg.Server.AllowCredentials {
		t.Fatalf("Server.AllowCredentials = %v, want false", cfg.Server.AllowCredentials)
	}
	if !cfg.Server.UnsafeAllowAllOrigins {
		t.Fatalf("Server.UnsafeAllowAllOrigins = %v, want true", cfg.Server.UnsafeAllowAllOrigins)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080},
			Log:    LogConfig{Level: "info", Format: "json"},
			IDGen:  IDGenConfig{MachineID: 1, Epoch: idgen.DefaultEpoch},
			Worker: WorkerConfig{GeneralPoolSize: 1, ExtractPoolSize: 1},
			API:    APIConfig{MaxMintBatch: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"machine id too large", func(c *Config) { c.IDGen.MachineID = 1024 }, true},
		{"negative machine id", func(c *Config) { c.IDGen.MachineID = -1 }, true},
		{"future epoch", func(c *Config) { c.IDGen.Epoch = time.Now().Add(time.Hour).UnixMilli() }, true},
		{"negative epoch", func(c *Config) { c.IDGen.Epoch = -1 }, true},
		{"empty extract pool", func(c *Config) { c.Worker.ExtractPoolSize = 0 }, true},
		{"zero mint batch", func(c *Config) { c.API.MaxMintBatch = 0 }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"console log format", func(c *Config) { c.Log.Format = "console" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
