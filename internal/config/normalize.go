package config

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizeChannel(); err != nil {
		return err
	}
	c.normalizeGenerate()
	c.normalizeQueue()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultServerBaseURL
	}
	if c.Server.TimeoutSeconds <= 0 {
		c.Server.TimeoutSeconds = defaultServerTimeoutSeconds
	}
	return nil
}

// normalizeChannel derives the websocket URL from the server base URL when
// the channel URL is left unset.
func (c *Config) normalizeChannel() error {
	c.Channel.URL = strings.TrimSpace(c.Channel.URL)
	if c.Channel.URL == "" {
		parsed, err := url.Parse(c.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("derive channel url: %w", err)
		}
		switch parsed.Scheme {
		case "https":
			parsed.Scheme = "wss"
		default:
			parsed.Scheme = "ws"
		}
		parsed.Path = "/ws"
		c.Channel.URL = parsed.String()
	}
	if c.Channel.ReconnectIntervalSeconds <= 0 {
		c.Channel.ReconnectIntervalSeconds = defaultReconnectIntervalSecs
	}
	return nil
}

func (c *Config) normalizeGenerate() {
	if c.Generate.Width <= 0 {
		c.Generate.Width = defaultGenerateWidth
	}
	if c.Generate.Height <= 0 {
		c.Generate.Height = defaultGenerateHeight
	}
	if c.Generate.CfgScale <= 0 {
		c.Generate.CfgScale = defaultGenerateCfgScale
	}
	if strings.TrimSpace(c.Generate.SamplingMethod) == "" {
		c.Generate.SamplingMethod = defaultGenerateSampler
	}
	if c.Generate.SampleSteps <= 0 {
		c.Generate.SampleSteps = defaultGenerateSampleSteps
	}
	if c.Generate.ClipSkip <= 0 {
		c.Generate.ClipSkip = defaultGenerateClipSkip
	}
	if c.Generate.Count <= 0 {
		c.Generate.Count = defaultGenerateCount
	}
}

func (c *Config) normalizeQueue() {
	if c.Queue.PageSize <= 0 {
		c.Queue.PageSize = defaultQueuePageSize
	}
	if c.Queue.RefetchCoalesceMillis <= 0 {
		c.Queue.RefetchCoalesceMillis = defaultRefetchCoalesceMillis
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	if expanded, err := expandPath(c.Logging.Dir); err == nil {
		c.Logging.Dir = expanded
	}
}
