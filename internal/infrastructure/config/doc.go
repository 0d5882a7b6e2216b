// Package config handles loading and validating Inkwell Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with INKWELL_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Signing secrets should be set via environment variables
//   - Access and refresh secrets must be distinct and at least 32 characters
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := auth.NewCodec(cfg.Codec())
package config
