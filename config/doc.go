// Package config loads a wirekit application's configuration with Viper from
// a config.yml file, an optional .env file and the process environment.
//
//	cfg, err := config.Load("inventory")
//
// Environment variables override file values with underscores as section
// separators (SERVER_PORT, SETTINGS_REGION). The settings section is the
// map service variants are matched against.
package config
