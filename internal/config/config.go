// Package config loads bsqld's server configuration from a TOML file,
// grounded on the teacher's internal/parser/toml Parser/ParseFile facade
// (read a format, hand back a typed value), generalized here to BSQL's
// own flat settings shape rather than a schema-conversion pipeline.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is bsqld's server configuration (SPEC_FULL.md §3 Ambient Stack).
type Config struct {
	RootDir    string `toml:"root_dir"`
	ListenAddr string `toml:"listen_addr"`
	UsersFile  string `toml:"users_file"`
	LogFormat  string `toml:"log_format"`
	MaxConns   int    `toml:"max_conns"`
}

// Default returns the configuration bsqld runs with when no config file
// is given, per spec.md §6's `0.0.0.0:4162` default endpoint.
func Default(root string) Config {
	return Config{
		RootDir:    root,
		ListenAddr: "0.0.0.0:4162",
		UsersFile:  "users.bin",
		LogFormat:  "console",
		MaxConns:   256,
	}
}

// Load reads a bsqld.toml file at path, overlaying it on top of Default.
func Load(path string, base Config) (Config, error) {
	cfg := base
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %q: %w", path, err)
	}
	return cfg, nil
}
