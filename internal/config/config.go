// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	// JSONConfigEnv holds a JSON document merged over the toml config.
	JSONConfigEnv = "AUTHRELAY_CONFIG_JSON"

	defaultShutDownTime = 5

	// DefaultReadBufferSize fits four session cookie chunks plus the usual headers.
	DefaultReadBufferSize = 16 * 1024
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c          Config
		jsonConfig string
		err        error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	jsonConfig = os.Getenv(JSONConfigEnv)

	if jsonConfig != "" {
		c, err = decodeAndMergeConfig(c, jsonConfig)
		if err != nil {
			return c, err
		}
	}

	// provider settings from env win over both
	if err = env.Parse(&c.Supabase); err != nil {
		return c, errors.Wrap(err, "failed to parse supabase env")
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings and fill defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if err := validator.New().Struct(c.Supabase); err != nil {
		return errors.Wrap(ErrInvalidSupabase, err.Error())
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.ReadBufferSize == 0 {
		c.Webserver.ReadBufferSize = DefaultReadBufferSize
	}

	return nil
}
