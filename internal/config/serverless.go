package config

import (
	"os"
	"path/filepath"
	"sync"
)

// lambdaScratch is the only writable directory inside a Lambda sandbox
const lambdaScratch = "/tmp"

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptForServerless moves every writable path under /tmp, turns off work
// that outlives a single invocation and keeps the database in rollback
// journal mode.
func AdaptForServerless(cfg *Config) *Config {
	if !IsServerlessMode() {
		return cfg
	}
	return adaptForLambda(cfg)
}

func adaptForLambda(cfg *Config) *Config {
	cfg.Database.Path = underScratch(cfg.Database.Path)
	cfg.Database.WALMode = false
	cfg.Database.BackupEnabled = false
	cfg.Database.StatsInterval = 0

	cfg.Storage.BasePath = underScratch(cfg.Storage.BasePath)

	// each invocation refreshes on demand and the gateway throttles requests
	cfg.RecordStore.Watch = false
	cfg.RecordStore.RefreshInterval = 0
	cfg.RateLimit.RequestsPerSecond = 0
	return cfg
}

func underScratch(path string) string {
	if path == "" || filepath.Dir(path) == lambdaScratch {
		return path
	}
	return filepath.Join(lambdaScratch, filepath.Base(path))
}

// GetOptimizedConfig loads configuration adapted for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return AdaptForServerless(cfg), nil
}
