//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-assist/cmd"
	"media-assist/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	output     *bytes.Buffer
	err        error
}

// SharedConfigContext is reset before each scenario via After hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.cfg = nil
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	// Reset context after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a config file exists with:$`, testCtx.aConfigFileExistsWith)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^I run config show$`, testCtx.iRunConfigShow)
	ctx.Step(`^I run config get "([^"]*)"$`, testCtx.iRunConfigGet)
	ctx.Step(`^I run config set "([^"]*)" to "([^"]*)"$`, testCtx.iRunConfigSetTo)
	ctx.Step(`^I run config validate$`, testCtx.iRunConfigValidate)
	ctx.Step(`^the setting "([^"]*)" should be "([^"]*)"$`, testCtx.theSettingShouldBe)
	ctx.Step(`^the saved setting "([^"]*)" should be "([^"]*)"$`, testCtx.theSavedSettingShouldBe)
	ctx.Step(`^the config command should succeed$`, testCtx.theConfigCommandShouldSucceed)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, testCtx.theConfigCommandShouldFailWith)
	ctx.Step(`^the config output should contain "([^"]*)"$`, testCtx.theConfigOutputShouldContain)
	ctx.Step(`^the config output should not contain "([^"]*)"$`, testCtx.theConfigOutputShouldNotContain)
}

func (c *configContext) aConfigFileExistsWith(content *godog.DocString) error {
	return os.WriteFile(c.configPath, []byte(content.Content), 0600)
}

func (c *configContext) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *configContext) iLoadTheConfiguration() error {
	_, err := c.load()
	return err
}

func (c *configContext) iRunConfigShow() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigShowWithDependencies(cfg, c.configPath, c.output)
	return nil
}

func (c *configContext) iRunConfigGet(key string) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigGetWithDependencies(cfg, c.configPath, key, c.output)
	return nil
}

func (c *configContext) iRunConfigSetTo(key, value string) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, c.output)
	return nil
}

func (c *configContext) iRunConfigValidate() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigValidateWithDependencies(cfg, c.configPath, c.output)
	return nil
}

func (c *configContext) theSettingShouldBe(key, expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("configuration was not loaded")
	}
	got, err := config.NewConfigManager(c.cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func (c *configContext) theSavedSettingShouldBe(key, expected string) error {
	got, err := savedSetting(c.configPath, key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected saved %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func (c *configContext) theConfigCommandShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got: %v", c.err)
	}
	return nil
}

func (c *configContext) theConfigCommandShouldFailWith(message string) error {
	if c.err == nil {
		return fmt.Errorf("expected an error containing %q, but the command succeeded", message)
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, c.err)
	}
	return nil
}

func (c *configContext) theConfigOutputShouldContain(expected string) error {
	if c.err != nil {
		return fmt.Errorf("command failed: %v", c.err)
	}
	if !strings.Contains(c.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, c.output.String())
	}
	return nil
}

func (c *configContext) theConfigOutputShouldNotContain(unexpected string) error {
	if strings.Contains(c.output.String(), unexpected) {
		return fmt.Errorf("expected output not to contain %q, got:\n%s", unexpected, c.output.String())
	}
	return nil
}
