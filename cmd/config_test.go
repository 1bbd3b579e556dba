package main

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

var configEnvVars = []string{
	"JOB_FILE", "OUTPUT", "POSITION", "FONT_SIZE", "TEXT_COLOR", "BOLD", "BORDER",
	"BORDER_WIDTH", "BORDER_COLOR", "FONT_FILE", "FONT_TIMEOUT", "KEEP_NAMES",
	"REMOTE_URL", "API_KEY", "LISTEN_ADDR", "LOG_LEVEL", "LOG_FORMAT", "DRY_RUN",
}

// Helper function to reset test environment
func resetTestEnv(t *testing.T) {
	t.Helper()
	for _, env := range configEnvVars {
		t.Setenv(env, "")
	}

	jobFile = ""
	output = ""
	position = ""
	fontSize = ""
	textColor = ""
	bold = ""
	border = ""
	borderWidth = ""
	borderColor = ""
	fontFile = ""
	fontTimeout = 0
	keepNames = false
	remoteURL = ""
	apiKey = ""
	listenAddr = ""
	logLevel = ""
	logFormat = ""
	dryRun = false
}

func TestLoadConfigDefaults(t *testing.T) {
	resetTestEnv(t)

	require.NoError(t, loadConfig())
	assert.Equal(t, "job.yaml", jobFile)
	assert.Equal(t, utils.DefaultListenAddr, listenAddr)
	assert.Equal(t, 5, fontTimeout)
	assert.Equal(t, "info", logLevel)
	assert.Equal(t, "text", logFormat)
	assert.Empty(t, output)
	assert.Empty(t, remoteURL)
	assert.False(t, keepNames)
	assert.False(t, dryRun)
}

func TestLoadConfigPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		flags      func()
		wantJob    string
		wantURL    string
		wantTime   int
		wantKeep   bool
		wantDryRun bool
	}{
		{
			name:       "env variables",
			envVars:    map[string]string{"JOB_FILE": "env.yaml", "REMOTE_URL": "http://env:8080", "FONT_TIMEOUT": "9", "KEEP_NAMES": "true", "DRY_RUN": "true"},
			flags:      func() {},
			wantJob:    "env.yaml",
			wantURL:    "http://env:8080",
			wantTime:   9,
			wantKeep:   true,
			wantDryRun: true,
		},
		{
			name:    "flags override env",
			envVars: map[string]string{"JOB_FILE": "env.yaml", "REMOTE_URL": "http://env:8080", "FONT_TIMEOUT": "9"},
			flags: func() {
				jobFile = "flag.yaml"
				remoteURL = "http://flag:8080"
				fontTimeout = 2
			},
			wantJob:  "flag.yaml",
			wantURL:  "http://flag:8080",
			wantTime: 2,
		},
		{
			name:     "values are trimmed",
			envVars:  map[string]string{"JOB_FILE": "  spaced.yaml "},
			flags:    func() {},
			wantJob:  "spaced.yaml",
			wantTime: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetTestEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.flags()

			require.NoError(t, loadConfig())
			assert.Equal(t, tt.wantJob, jobFile)
			assert.Equal(t, tt.wantURL, remoteURL)
			assert.Equal(t, tt.wantTime, fontTimeout)
			assert.Equal(t, tt.wantKeep, keepNames)
			assert.Equal(t, tt.wantDryRun, dryRun)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		wantMessage string
	}{
		{name: "font timeout not a number", envVars: map[string]string{"FONT_TIMEOUT": "soon"}, wantMessage: "FONT_TIMEOUT must be a positive number"},
		{name: "font timeout negative", envVars: map[string]string{"FONT_TIMEOUT": "-1"}, wantMessage: "FONT_TIMEOUT must be a positive number"},
		{name: "bold not a boolean", envVars: map[string]string{"BOLD": "maybe"}, wantMessage: `BOLD must be true or false, got "maybe"`},
		{name: "border not a boolean", envVars: map[string]string{"BORDER": "thick"}, wantMessage: `BORDER must be true or false, got "thick"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetTestEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			err := loadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestApplyOptionOverrides(t *testing.T) {
	resetTestEnv(t)
	t.Setenv("POSITION", "top-left")
	t.Setenv("BORDER", "false")
	t.Setenv("TEXT_COLOR", "#ff0000")
	bold = "true"
	require.NoError(t, loadConfig())

	job := &utils.TJob{Options: utils.DefaultOptions}
	applyOptionOverrides(job)

	assert.Equal(t, "top-left", job.Options.Position)
	assert.Equal(t, "#ff0000", job.Options.TextColor)
	assert.True(t, job.Options.Bold)
	assert.False(t, job.Options.HasBorder)
	assert.Equal(t, utils.DefaultOptions.FontSize, job.Options.FontSize)
	assert.Equal(t, utils.DefaultOptions.BorderColor, job.Options.BorderColor)
	assert.False(t, job.KeepNames)
}

func TestLogLevelConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		envLevel    string
		flagLevel   string
		expectLevel logrus.Level
	}{
		{name: "default level", expectLevel: logrus.InfoLevel},
		{name: "env variable set", envLevel: "debug", expectLevel: logrus.DebugLevel},
		{name: "flag overrides env", envLevel: "debug", flagLevel: "warn", expectLevel: logrus.WarnLevel},
		{name: "invalid level defaults to info", envLevel: "invalid", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetTestEnv(t)
			t.Setenv("LOG_LEVEL", tt.envLevel)
			logLevel = tt.flagLevel

			var buf bytes.Buffer
			logger := configureLoggerWithOutput(&buf)
			assert.Equal(t, tt.expectLevel, logger.GetLevel())
			if tt.envLevel == "invalid" {
				assert.Contains(t, buf.String(), "Invalid LOG_LEVEL 'invalid'")
			}
		})
	}
}

func TestLogFormatConfiguration(t *testing.T) {
	resetTestEnv(t)

	logger := configureLoggerWithOutput(&bytes.Buffer{})
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	t.Setenv("LOG_FORMAT", "json")
	logger = configureLoggerWithOutput(&bytes.Buffer{})
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestStartupConfigurationSummary(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		wantInLog []string
	}{
		{
			name: "text format with basic config",
			envVars: map[string]string{
				"LOG_LEVEL":  "info",
				"LOG_FORMAT": "text",
				"DRY_RUN":    "true",
				"OUTPUT":     "out.zip",
			},
			wantInLog: []string{
				"Starting with config:",
				"job=job.yaml",
				"remote=local",
				"font-timeout=5s",
				"level=info",
				"format=text",
				"dry-run=true",
				"output=out.zip",
			},
		},
		{
			name: "json format with all flags",
			envVars: map[string]string{
				"LOG_LEVEL":    "debug",
				"LOG_FORMAT":   "json",
				"REMOTE_URL":   "http://stamp:8080",
				"API_KEY":      "secret",
				"KEEP_NAMES":   "true",
				"FONT_TIMEOUT": "3",
			},
			wantInLog: []string{
				"Configuration loaded",
				`"remote":"http://stamp:8080"`,
				`"apiKeySet":true`,
				`"keepNames":true`,
				`"fontTimeout":3`,
				`"logLevel":"debug"`,
				`"logFormat":"json"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetTestEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var buf bytes.Buffer
			logger := configureLoggerWithOutput(&buf)
			require.NoError(t, loadConfig())
			logStartupSummary(logger)

			logOutput := buf.String()
			for _, want := range tt.wantInLog {
				assert.Contains(t, logOutput, want)
			}
			assert.NotContains(t, logOutput, "secret")
		})
	}
}
