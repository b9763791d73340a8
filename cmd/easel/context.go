package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"easel/internal/api"
	"easel/internal/channel"
	"easel/internal/config"
	"easel/internal/history"
	"easel/internal/submit"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil {
			if override := strings.TrimSpace(*c.serverFlag); override != "" {
				cfg.Server.BaseURL = override
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.Config{
		BaseURL:        cfg.Server.BaseURL,
		APIToken:       cfg.Server.APIToken,
		TimeoutSeconds: cfg.Server.TimeoutSeconds,
	}), nil
}

func (c *commandContext) submitEngine() (*submit.Engine, error) {
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	return submit.New(client), nil
}

func (c *commandContext) channelClient() (*channel.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return channel.New(
		cfg.Channel.URL,
		channel.WithReconnectInterval(cfg.Channel.ReconnectInterval()),
	), nil
}

// historyStore opens the submission history database when history is enabled.
// A nil store with a nil error means history is disabled.
func (c *commandContext) historyStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled || strings.TrimSpace(cfg.History.Path) == "" {
		return nil, nil
	}
	return history.Open(cfg.History.Path)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
