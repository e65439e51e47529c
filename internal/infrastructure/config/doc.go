// Package config handles loading and validating the session audit service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SESSIONAUDIT_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT secret, broker passwords, InfluxDB tokens) should be
//     set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.API.Port)
package config
