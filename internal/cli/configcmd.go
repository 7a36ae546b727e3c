// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/pipdeck/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig implements config show, get, set, path and keys.
func HandleConfig(_ context.Context, args Args, env *Env) error {
	p := env.Printer

	switch args.Subcommand {
	case "", "show":
		if p.Structured() {
			return p.Emit("config", env.Config)
		}
		for _, key := range config.GetAllKeys() {
			val, err := env.Config.Get(key)
			if err != nil {
				return err
			}
			p.Println(fmt.Sprintf("%s = %v", p.Style(LabelStyle, key), val))
		}
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "pipdeck config get server.base_url")
		}
		val, err := env.Config.Get(args.ConfigKey)
		if err != nil {
			return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
		}
		if p.Structured() {
			return p.Emit("config", map[string]interface{}{args.ConfigKey: val})
		}
		p.Println(fmt.Sprint(val))
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return ErrMissingArgument("key and value", "pipdeck config set ui.theme light")
		}
		path, err := configFilePath(env)
		if err != nil {
			return err
		}
		if err := setConfigValue(path, args.ConfigKey, args.ConfigVal); err != nil {
			return err
		}
		if p.Structured() {
			return p.Emit("config", map[string]string{"path": path, args.ConfigKey: args.ConfigVal})
		}
		p.Println(fmt.Sprintf("Set %s = %s in %s", args.ConfigKey, args.ConfigVal, path))
		return nil

	case "path":
		path, err := configFilePath(env)
		if err != nil {
			return err
		}
		if p.Structured() {
			return p.Emit("config", map[string]string{"path": path})
		}
		p.Println(path)
		return nil

	case "keys":
		keys := config.GetAllKeys()
		if p.Structured() {
			return p.Emit("config", keys)
		}
		p.Println(strings.Join(keys, "\n"))
		return nil

	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown subcommand",
			Example: "pipdeck config [show|get|set|path|keys]",
		}
	}
}

// configFilePath is the file config set writes: --config-file, or the
// default TOML file.
func configFilePath(env *Env) (string, error) {
	if env.ConfigPath != "" {
		return env.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// setConfigValue updates one key in the file at path, creating the file
// from defaults if it does not exist yet. The result must validate before
// anything is written.
func setConfigValue(path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}

	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
