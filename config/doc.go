// Package config loads and validates the JSON configuration of gridctl.
package config
