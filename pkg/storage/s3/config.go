package s3

import (
	"fmt"
)

const defaultRegion = "us-east-1"

// Config holds S3 configuration
type Config struct {
	Endpoint        string `json:"endpoint"`          // Optional: MinIO, LocalStack, R2...
	Region          string `json:"region"`            // Empty: SDK default chain, then us-east-1
	Bucket          string `json:"bucket"`            // S3 bucket name
	AccessKeyID     string `json:"access_key_id"`     // Static credentials, used only with the secret
	SecretAccessKey string `json:"secret_access_key"` // Static credentials, used only with the key ID
	ForcePathStyle  bool   `json:"force_path_style"`  // Defaults to true with a custom endpoint
}

// HasStaticCredentials reports whether both halves of a key pair are set
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	if v, ok := options["bucket"].(string); ok && v != "" {
		cfg.Bucket = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket")
	}
	if v, ok := options["endpoint"].(string); ok {
		cfg.Endpoint = v
	}
	if v, ok := options["region"].(string); ok {
		cfg.Region = v
	}
	if v, ok := options["access_key_id"].(string); ok {
		cfg.AccessKeyID = v
	}
	if v, ok := options["secret_access_key"].(string); ok {
		cfg.SecretAccessKey = v
	}

	cfg.ForcePathStyle = cfg.Endpoint != ""
	if v, ok := options["force_path_style"].(bool); ok {
		cfg.ForcePathStyle = v
	}

	return cfg, nil
}
