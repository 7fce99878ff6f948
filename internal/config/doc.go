// Package config loads, normalizes, and validates turntable's TOML
// configuration: working directories, external tool binaries, artwork and
// font assets, branding text, render profile overrides, and logging
// preferences.
package config
