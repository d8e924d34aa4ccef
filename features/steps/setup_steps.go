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

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	cancelWhenDone  bool
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing. Each kind of prompt
// takes its answers from its own queue. An empty answer, or an exhausted
// queue, returns the prompt's default like the terminal prompter does,
// unless whenExhausted is set.
type MockPrompter struct {
	inputs        []string
	confirms      []bool
	selects       []string
	passwords     []string
	whenExhausted error
	asked         []string
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.inputs) == 0 {
		if m.whenExhausted != nil {
			return "", m.whenExhausted
		}
		return defaultValue, nil
	}
	response := m.inputs[0]
	m.inputs = m.inputs[1:]
	if response == "" {
		return defaultValue, nil
	}
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked = append(m.asked, message)
	if len(m.confirms) == 0 {
		if m.whenExhausted != nil {
			return false, m.whenExhausted
		}
		return defaultValue, nil
	}
	response := m.confirms[0]
	m.confirms = m.confirms[1:]
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.selects) == 0 {
		if m.whenExhausted != nil || defaultValue == "" {
			return "", cmd.ErrPromptCancelled
		}
		return defaultValue, nil
	}
	response := m.selects[0]
	m.selects = m.selects[1:]
	for _, opt := range options {
		if opt == response {
			return response, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the options for %q: %v", response, message, options)
}

func (m *MockPrompter) Password(message string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.passwords) == 0 {
		if m.whenExhausted != nil {
			return "", m.whenExhausted
		}
		return "", nil
	}
	response := m.passwords[0]
	m.passwords = m.passwords[1:]
	return response, nil
}

// parseAnswerTable builds a prompter from a "kind | answer" table
func parseAnswerTable(table *godog.Table) (*MockPrompter, error) {
	m := &MockPrompter{}
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		kind := strings.ToLower(strings.TrimSpace(row.Cells[0].Value))
		answer := row.Cells[1].Value
		switch kind {
		case "input":
			m.inputs = append(m.inputs, answer)
		case "select":
			m.selects = append(m.selects, answer)
		case "password":
			m.passwords = append(m.passwords, answer)
		case "confirm":
			m.confirms = append(m.confirms, strings.ToLower(answer) == "y")
		default:
			return nil, fmt.Errorf("unknown prompt kind %q", kind)
		}
	}
	return m, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.originalContent = ""
		testCtx.cancelWhenDone = false
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedSetupContext = &setupContext{}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, testCtx.noConfigFileExistsForSetup)
	ctx.Step(`^a config file already exists for setup$`, testCtx.aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^the user cancels when the answers run out$`, testCtx.theUserCancelsWhenTheAnswersRunOut)
	ctx.Step(`^I run the setup command answering:$`, testCtx.iRunTheSetupCommandAnswering)
	ctx.Step(`^a config file should exist$`, testCtx.aConfigFileShouldExist)
	ctx.Step(`^no config file should exist$`, testCtx.noConfigFileShouldExist)
	ctx.Step(`^the setup config should have "([^"]*)" set to "([^"]*)"$`, testCtx.theSetupConfigShouldHaveSetTo)
	ctx.Step(`^the setup output should contain "([^"]*)"$`, testCtx.theSetupOutputShouldContain)
	ctx.Step(`^the setup should fail with "([^"]*)"$`, testCtx.theSetupShouldFailWith)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `storage:
  temp_dir: /original/tmp
speech:
  backend: google
  language: en-GB
sign:
  image_dir: /original/signs
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

func (s *setupContext) theUserCancelsWhenTheAnswersRunOut() error {
	s.cancelWhenDone = true
	return nil
}

func (s *setupContext) iRunTheSetupCommandAnswering(table *godog.Table) error {
	prompter, err := parseAnswerTable(table)
	if err != nil {
		return err
	}
	if s.cancelWhenDone {
		prompter.whenExhausted = cmd.ErrPromptCancelled
	}

	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, s.output)
	return nil
}

func (s *setupContext) aConfigFileShouldExist() error {
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) noConfigFileShouldExist() error {
	if _, err := os.Stat(s.configPath); err == nil {
		return fmt.Errorf("expected no config file at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) theSetupConfigShouldHaveSetTo(key, expected string) error {
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	got, err := savedSetting(s.configPath, key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func (s *setupContext) theSetupOutputShouldContain(expected string) error {
	if !strings.Contains(s.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, s.output.String())
	}
	return nil
}

func (s *setupContext) theSetupShouldFailWith(message string) error {
	if s.err == nil {
		return fmt.Errorf("expected setup to fail with %q, but it succeeded", message)
	}
	if !strings.Contains(s.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got: %v", message, s.err)
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	content, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("config content was changed")
	}
	return nil
}

// savedSetting reads one setting back from the file on disk
func savedSetting(path, key string) (string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return config.NewConfigManager(cfg, path).Get(key)
}
