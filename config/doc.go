// Package config loads the backend configuration from an optional YAML file,
// fills gaps from built-in defaults and takes secrets from the environment.
package config
