// Copyright 2026 The prbridge Authors
// SPDX-License-Identifier: MIT

// Package config builds the explicit configuration structs prbridge uses.
// Each struct is constructed once at startup and passed to the component
// that needs it; nothing else in the tree reads the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/prbridge/prbridge/internal/forge"
)

// Environment variable names consumed by the launcher.
const (
	EnvOwner      = "PR_OWNER"
	EnvRepo       = "PR_REPO"
	EnvPullNumber = "PR_NUMBER"
	EnvToken      = "GITHUB_TOKEN"
)

// Launcher holds the four values the launcher needs to fire its single
// tool call. All fields are required.
type Launcher struct {
	Owner      string
	Repo       string
	PullNumber int
	Token      string
}

// LoadLauncher reads the launcher configuration from the environment.
// A missing variable or an unparseable pull-request number is an error;
// the caller is expected to treat it as fatal.
func LoadLauncher() (*Launcher, error) {
	v := viper.New()
	for key, env := range map[string]string{
		"owner":       EnvOwner,
		"repo":        EnvRepo,
		"pull_number": EnvPullNumber,
		"token":       EnvToken,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	var missing []string
	for _, pair := range [][2]string{
		{"owner", EnvOwner},
		{"repo", EnvRepo},
		{"pull_number", EnvPullNumber},
		{"token", EnvToken},
	} {
		if v.GetString(pair[0]) == "" {
			missing = append(missing, pair[1])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	number, err := strconv.Atoi(v.GetString("pull_number"))
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric, got %q", EnvPullNumber, v.GetString("pull_number"))
	}

	return &Launcher{
		Owner:      v.GetString("owner"),
		Repo:       v.GetString("repo"),
		PullNumber: number,
		Token:      v.GetString("token"),
	}, nil
}

// LoadLauncherWithRepo builds a launcher configuration with owner and repo
// supplied by the caller (for example detected from the local git remote).
// PR_NUMBER and GITHUB_TOKEN still come from the environment and remain
// required.
func LoadLauncherWithRepo(owner, repo string) (*Launcher, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo must be non-empty")
	}

	v := viper.New()
	if err := v.BindEnv("pull_number", EnvPullNumber); err != nil {
		return nil, fmt.Errorf("binding %s: %w", EnvPullNumber, err)
	}
	if err := v.BindEnv("token", EnvToken); err != nil {
		return nil, fmt.Errorf("binding %s: %w", EnvToken, err)
	}

	var missing []string
	if v.GetString("pull_number") == "" {
		missing = append(missing, EnvPullNumber)
	}
	if v.GetString("token") == "" {
		missing = append(missing, EnvToken)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	number, err := strconv.Atoi(v.GetString("pull_number"))
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric, got %q", EnvPullNumber, v.GetString("pull_number"))
	}

	return &Launcher{
		Owner:      owner,
		Repo:       repo,
		PullNumber: number,
		Token:      v.GetString("token"),
	}, nil
}

// Server holds the MCP server configuration: where the forge API lives,
// whether to bind an HTTP transport, and the swappable report template.
type Server struct {
	// BaseURL is the forge REST API root.
	BaseURL string

	// HTTPAddr, when non-empty, makes the server bind the streaming HTTP
	// transport on this address instead of stdio.
	HTTPAddr string

	// TemplatePath points to an optional YAML report/prompt template.
	TemplatePath string

	// Model overrides the default LLM model for reviewer notes.
	Model string
}

// LoadServer reads server configuration from an optional YAML config file
// and PRBRIDGE_* environment overrides. configFile may be empty, in which
// case prbridge.yaml in the working directory is used if present.
func LoadServer(configFile string) (*Server, error) {
	v := viper.New()
	v.SetDefault("base_url", forge.DefaultBaseURL)
	v.SetDefault("http_addr", "")
	v.SetDefault("template", "")
	v.SetDefault("model", "")

	v.SetEnvPrefix("PRBRIDGE")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("prbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// The default config file is optional.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	return &Server{
		BaseURL:      v.GetString("base_url"),
		HTTPAddr:     v.GetString("http_addr"),
		TemplatePath: v.GetString("template"),
		Model:        v.GetString("model"),
	}, nil
}
