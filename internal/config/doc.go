// Package config handles settings loading, normalization and validation.
//
// Settings are read from a TOML file. Defaults are applied first, then a
// normalization pass resolves inter-setting constraints (a custom lineup code
// disables channel and receiver matching), and validation fails fast when
// required values are missing.
package config
