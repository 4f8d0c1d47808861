package ssh

import "fmt"

type Config struct {
	Host          string `json:"host"`
	Port          int    `json:"port"` // Default: 22
	User          string `json:"user"`
	Password      string `json:"password"`       // Optional
	KeyPath       string `json:"key_path"`       // Optional: path to private key
	KeyPassphrase string `json:"key_passphrase"` // Optional
	KnownHosts    string `json:"known_hosts"`    // Optional: known_hosts file for host key checks
	RemotePath    string `json:"remote_path"`    // Base directory on remote server
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Port: 22,
	}

	if v, ok := options["host"].(string); ok && v != "" {
		cfg.Host = v
	} else {
		return nil, fmt.Errorf("missing required option: host")
	}
	if v, ok := options["user"].(string); ok && v != "" {
		cfg.User = v
	} else {
		return nil, fmt.Errorf("missing required option: user")
	}
	if v, ok := options["remote_path"].(string); ok && v != "" {
		cfg.RemotePath = v
	} else {
		return nil, fmt.Errorf("missing required option: remote_path")
	}
	if v, ok := options["password"].(string); ok {
		cfg.Password = v
	}
	if v, ok := options["key_path"].(string); ok {
		cfg.KeyPath = v
	}
	if v, ok := options["key_passphrase"].(string); ok {
		cfg.KeyPassphrase = v
	}
	if v, ok := options["known_hosts"].(string); ok {
		cfg.KnownHosts = v
	}

	switch v := options["port"].(type) {
	case int:
		cfg.Port = v
	case float64:
		cfg.Port = int(v)
	}

	if cfg.Password == "" && cfg.KeyPath == "" {
		return nil, fmt.Errorf("one of password or key_path is required")
	}

	return cfg, nil
}
