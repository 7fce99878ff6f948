package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeBranding()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	var err error
	c.Assets.DiscImage = strings.TrimSpace(c.Assets.DiscImage)
	if c.Assets.DiscImage != "" {
		if c.Assets.DiscImage, err = expandPath(c.Assets.DiscImage); err != nil {
			return fmt.Errorf("assets.disc_image: %w", err)
		}
	}
	c.Assets.FallbackBackground = strings.TrimSpace(c.Assets.FallbackBackground)
	if c.Assets.FallbackBackground != "" {
		if c.Assets.FallbackBackground, err = expandPath(c.Assets.FallbackBackground); err != nil {
			return fmt.Errorf("assets.fallback_background: %w", err)
		}
	}
	c.Assets.FontFile = strings.TrimSpace(c.Assets.FontFile)
	if c.Assets.FontFile != "" {
		if c.Assets.FontFile, err = expandPath(c.Assets.FontFile); err != nil {
			return fmt.Errorf("assets.font_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeBranding() {
	c.Branding.ChannelName = strings.TrimSpace(c.Branding.ChannelName)
	if c.Branding.ChannelName == "" {
		c.Branding.ChannelName = defaultChannelName
	}
	c.Branding.DateFormat = strings.TrimSpace(c.Branding.DateFormat)
	if c.Branding.DateFormat == "" {
		c.Branding.DateFormat = defaultDateFormat
	}
}

func (c *Config) normalizeRender() {
	c.Render.DefaultProfile = strings.ToLower(strings.TrimSpace(c.Render.DefaultProfile))
	if c.Render.DefaultProfile == "" {
		c.Render.DefaultProfile = defaultRenderProfile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
