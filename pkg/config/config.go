package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/moov-io/accountprocess/internal/util"
	"github.com/moov-io/accountprocess/pkg/process"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// ServiceName identifies this service on calls to the commerce service.
	ServiceName string `yaml:"serviceName"`

	Commerce CommerceConfig `yaml:"commerce"`
	Servers  ServersConfig  `yaml:"servers"`
}

type CommerceConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Debug    bool          `yaml:"debug"`
}

type ServersConfig struct {
	HTTPAddress  string `yaml:"httpAddress"`
	AdminAddress string `yaml:"adminAddress"`
}

func New() *Config {
	return &Config{
		Commerce: CommerceConfig{
			Timeout: 10 * time.Second,
		},
		Servers: ServersConfig{
			HTTPAddress:  ":8200",
			AdminAddress: ":9290",
		},
	}
}

// Load reads the YAML file at CONFIG_FILE, when set, and then applies
// environment variables over it.
func (c *Config) Load() error {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.readFile(path); err != nil {
			return err
		}
	}

	c.ServiceName = util.Or(os.Getenv("SERVICE_NAME"), os.Getenv("JANIS_SERVICE_NAME"), c.ServiceName)
	c.Commerce.Endpoint = util.Or(os.Getenv("COMMERCE_ENDPOINT"), c.Commerce.Endpoint)
	if v := os.Getenv("COMMERCE_DEBUG_CALLS"); v != "" {
		c.Commerce.Debug = util.Yes(v)
	}
	if v := os.Getenv("COMMERCE_TIMEOUT"); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid COMMERCE_TIMEOUT=%q: %v", v, err)
		}
		c.Commerce.Timeout = dur
	}
	c.Servers.HTTPAddress = util.Or(os.Getenv("HTTP_BIND_ADDRESS"), c.Servers.HTTPAddress)
	c.Servers.AdminAddress = util.Or(os.Getenv("HTTP_ADMIN_BIND_ADDRESS"), c.Servers.AdminAddress)

	return c.Validate()
}

func (c *Config) readFile(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("invalid config file path: %q", path)
	}
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %v", err)
	}
	if err := yaml.UnmarshalStrict(bs, c); err != nil {
		return fmt.Errorf("parsing config file %s: %v", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return process.ErrServiceNameMissing
	}
	if c.Commerce.Timeout < 0 {
		return fmt.Errorf("negative commerce timeout: %v", c.Commerce.Timeout)
	}
	return nil
}

// Endpoints returns the service addresses known from configuration.
func (c *Config) Endpoints() map[string]string {
	out := make(map[string]string)
	if c.Commerce.Endpoint != "" {
		out["commerce"] = c.Commerce.Endpoint
	}
	return out
}
