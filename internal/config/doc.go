// Package config handles YAML and TOML configuration loading with environment
// variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. Files ending in .toml are decoded with go-toml and then fed
// through the same schema as YAML files.
package config
