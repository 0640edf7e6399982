package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clippub/internal/api"
	"clippub/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
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
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client for the daemon. The --api flag wins over the
// configured bind address.
func (c *commandContext) client() (*api.Client, error) {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return api.NewClient(*c.apiFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Paths.APIBind), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
