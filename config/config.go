package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	DataDir  string `yaml:"data_dir"`
	Encoding string `yaml:"encoding"`
	OutDir   string `yaml:"out_dir"`
	Workers  int    `yaml:"workers"`
}

func Default() *Config {
	return &Config{
		Addr:     ":8000",
		Encoding: "utf-8",
		OutDir:   "extracted",
		Workers:  runtime.NumCPU(),
	}
}

// Load reads a yaml settings file over the defaults. Empty path means defaults only.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read config %q", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "Can't parse config %q", path)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c, nil
}

// Apply activates global settings, currently the name encoding.
func (c *Config) Apply() error {
	if c.Encoding == "" {
		return nil
	}
	return SetEncoding(c.Encoding)
}
