package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.WorkDir == c.Paths.OutputDir {
		return errors.New("paths.work_dir and paths.output_dir must differ; chunk scratch files would collide with finished videos")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	for name, override := range c.Profiles {
		if err := validateOverride(name, override); err != nil {
			return err
		}
	}
	return nil
}

func validateOverride(name string, o ProfileOverride) error {
	if o.Width < 0 || o.Height < 0 || o.FPS < 0 {
		return fmt.Errorf("profiles.%s: dimensions and fps must not be negative", name)
	}
	if o.Width%2 != 0 || o.Height%2 != 0 {
		return fmt.Errorf("profiles.%s: width and height must be even for yuv420p output", name)
	}
	if o.CRF < 0 || o.CRF > 51 {
		return fmt.Errorf("profiles.%s: crf must be between 0 and 51", name)
	}
	if o.TargetChunkSeconds < 0 {
		return fmt.Errorf("profiles.%s: target_chunk_seconds must not be negative", name)
	}
	if o.MaxChunks < 0 {
		return fmt.Errorf("profiles.%s: max_chunks must not be negative", name)
	}
	if o.Threads < 0 {
		return fmt.Errorf("profiles.%s: threads must not be negative", name)
	}
	if o.TimeoutFactor < 0 {
		return fmt.Errorf("profiles.%s: timeout_factor must not be negative", name)
	}
	if o.TimeoutFloor < 0 || o.StallWindow < 0 {
		return fmt.Errorf("profiles.%s: timeout_floor_seconds and stall_window_seconds must not be negative", name)
	}
	return nil
}
