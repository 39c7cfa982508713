// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"gopkg.in/yaml.v3"
)

// settings is everything the CLI can be told, from flags or a YAML file
type settings struct {
	Port     string        `yaml:"port"`
	Baud     int           `yaml:"baud"`
	Parity   string        `yaml:"parity"`
	DataBits int           `yaml:"data_bits"`
	StopBits string        `yaml:"stop_bits"`
	Timeout  time.Duration `yaml:"timeout"`

	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`

	User      string `yaml:"user"`
	Privilege string `yaml:"privilege"`
	Auth      string `yaml:"auth"`
	NoRetry   bool   `yaml:"no_retry"`

	// OEM auxiliary byte a capability probe must report before logging in
	// again after a lost session. File only.
	TargetAux *uint8 `yaml:"target_aux"`

	LogLevel string `yaml:"log_level"`
	Capture  string `yaml:"capture"`
}

func defaultSettings() settings {
	return settings{
		Baud:      ipmi.DefaultBaudRate,
		Parity:    "none",
		DataBits:  ipmi.DefaultDataBits,
		StopBits:  "1",
		Timeout:   ipmi.DefaultReadTimeout,
		User:      ipmi.DefaultUsername,
		Privilege: ipmi.PrivilegeAdministrator.String(),
		Auth:      ipmi.AuthTypeStraight.String(),
		LogLevel:  "warn",
	}
}

// loadSettings layers the defaults, the YAML file at path (if any) and the
// flags for which changed reports true
func loadSettings(path string, flags settings, changed func(name string) bool) (settings, error) {
	s := defaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	overlay := map[string]func(){
		"port":          func() { s.Port = flags.Port },
		"baud":          func() { s.Baud = flags.Baud },
		"parity":        func() { s.Parity = flags.Parity },
		"data-bits":     func() { s.DataBits = flags.DataBits },
		"stop-bits":     func() { s.StopBits = flags.StopBits },
		"timeout":       func() { s.Timeout = flags.Timeout },
		"url":           func() { s.URL = flags.URL },
		"username":      func() { s.Username = flags.Username },
		"no-ssl-verify": func() { s.NoSSLVerify = flags.NoSSLVerify },
		"user":          func() { s.User = flags.User },
		"privilege":     func() { s.Privilege = flags.Privilege },
		"auth":          func() { s.Auth = flags.Auth },
		"no-retry":      func() { s.NoRetry = flags.NoRetry },
		"log-level":     func() { s.LogLevel = flags.LogLevel },
		"capture":       func() { s.Capture = flags.Capture },
	}
	for name, apply := range overlay {
		if changed(name) {
			apply()
		}
	}

	return s, nil
}

// clientConfig converts the settings into a client configuration.
// The password is filled in by the caller.
func (s settings) clientConfig() (ipmi.Config, error) {
	cfg := ipmi.DefaultConfig()
	cfg.Port = s.Port
	cfg.BaudRate = s.Baud
	cfg.DataBits = s.DataBits
	cfg.ReadTimeout = s.Timeout
	cfg.Username = s.User
	cfg.OverrideRetry = s.NoRetry
	cfg.TargetAuxData = s.TargetAux

	var err error
	if cfg.Parity, err = parseParity(s.Parity); err != nil {
		return cfg, err
	}
	if cfg.StopBits, err = parseStopBits(s.StopBits); err != nil {
		return cfg, err
	}
	if cfg.Privilege, err = ipmi.ParsePrivilegeLevel(s.Privilege); err != nil {
		return cfg, err
	}
	if cfg.AuthType, err = ipmi.ParseAuthType(s.Auth); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func parseParity(s string) (serial.Parity, error) {
	switch s {
	case "none", "n", "N":
		return serial.NoParity, nil
	case "odd", "o", "O":
		return serial.OddParity, nil
	case "even", "e", "E":
		return serial.EvenParity, nil
	case "mark", "m", "M":
		return serial.MarkParity, nil
	case "space", "s", "S":
		return serial.SpaceParity, nil
	}
	return serial.NoParity, fmt.Errorf("unknown parity: %s", s)
}

func parseStopBits(s string) (serial.StopBits, error) {
	switch s {
	case "1":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	}
	return serial.OneStopBit, fmt.Errorf("unknown stop bits: %s", s)
}

func parityLetter(p serial.Parity) string {
	switch p {
	case serial.OddParity:
		return "O"
	case serial.EvenParity:
		return "E"
	case serial.MarkParity:
		return "M"
	case serial.SpaceParity:
		return "S"
	default:
		return "N"
	}
}

// newLogger builds the diagnostic logger on stderr
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
