package backblaze

import "fmt"

type Config struct {
	AccountID      string `json:"account_id"`
	ApplicationKey string `json:"application_key"`
	Bucket         string `json:"bucket"`
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	if v, ok := options["account_id"].(string); ok && v != "" {
		cfg.AccountID = v
	} else {
		return nil, fmt.Errorf("missing required option: account_id")
	}
	if v, ok := options["application_key"].(string); ok && v != "" {
		cfg.ApplicationKey = v
	} else {
		return nil, fmt.Errorf("missing required option: application_key")
	}
	if v, ok := options["bucket"].(string); ok && v != "" {
		cfg.Bucket = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket")
	}

	return cfg, nil
}
