package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateChannel(); err != nil {
		return err
	}
	if err := c.validateGenerate(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.base_url must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("server.base_url must include a host")
	}
	return nil
}

func (c *Config) validateChannel() error {
	parsed, err := url.Parse(c.Channel.URL)
	if err != nil {
		return fmt.Errorf("channel.url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("channel.url must be ws or wss, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateGenerate() error {
	if c.Generate.Width%64 != 0 || c.Generate.Height%64 != 0 {
		return errors.New("generate.width and generate.height must be multiples of 64")
	}
	if c.Generate.CfgScale < 1 || c.Generate.CfgScale > 30 {
		return errors.New("generate.cfg_scale must be between 1 and 30")
	}
	if c.Generate.SampleSteps > 150 {
		return errors.New("generate.sample_steps must be at most 150")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.PageSize > 100 {
		return errors.New("queue.page_size must be at most 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
