/**************************************************************************************************
** Configuration and environment management for the photo-stamp CLI.
** Handles logger configuration, environment variable loading, and global configuration state.
**************************************************************************************************/

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/majorfi/photo-stamp/pkg/utils"
)

// Global configuration variables
var jobFile string
var output string
var position string
var fontSize string
var textColor string
var bold string
var border string
var borderWidth string
var borderColor string
var fontFile string
var fontTimeout int
var keepNames bool
var remoteURL string
var apiKey string
var listenAddr string
var logLevel string
var logFormat string
var dryRun bool

const defaultJobFile = "job.yaml"

/**************************************************************************************************
** Configures the logger based on flags and environment variables. Sets up the log level and
** format according to --log-level/LOG_LEVEL and --log-format/LOG_FORMAT.
**
** @return *logrus.Logger - Configured logger instance
**************************************************************************************************/
func configureLogger() *logrus.Logger {
	return configureLoggerWithOutput(os.Stderr)
}

func configureLoggerWithOutput(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		if parsedLevel, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(parsedLevel)
		} else {
			logger.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", level)
			logger.SetLevel(logrus.InfoLevel)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	format := logFormat
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			FullTimestamp:    false,
			TimestampFormat:  time.RFC3339,
		})
	}

	return logger
}

/**************************************************************************************************
** Loads the .env file, the environment variables and the command-line flags, with flags taking
** precedence over env variables. Exits on an invalid value.
**
** @return *logrus.Logger - Logger configured from the loaded values
**************************************************************************************************/
func loadEnv() *logrus.Logger {
	_ = godotenv.Load()
	logger := configureLogger()
	if err := loadConfig(); err != nil {
		logger.Fatal(err)
	}
	logStartupSummary(logger)
	return logger
}

/**************************************************************************************************
** loadConfig fills every configuration variable the flags left empty from its environment
** variable, then from its default.
**************************************************************************************************/
func loadConfig() error {
	stringFromEnv(&jobFile, "JOB_FILE", defaultJobFile)
	stringFromEnv(&output, "OUTPUT", "")
	stringFromEnv(&position, "POSITION", "")
	stringFromEnv(&fontSize, "FONT_SIZE", "")
	stringFromEnv(&textColor, "TEXT_COLOR", "")
	stringFromEnv(&bold, "BOLD", "")
	stringFromEnv(&border, "BORDER", "")
	stringFromEnv(&borderWidth, "BORDER_WIDTH", "")
	stringFromEnv(&borderColor, "BORDER_COLOR", "")
	stringFromEnv(&fontFile, "FONT_FILE", "")
	stringFromEnv(&remoteURL, "REMOTE_URL", "")
	stringFromEnv(&apiKey, "API_KEY", "")
	stringFromEnv(&listenAddr, "LISTEN_ADDR", utils.DefaultListenAddr)
	stringFromEnv(&logLevel, "LOG_LEVEL", "info")
	stringFromEnv(&logFormat, "LOG_FORMAT", "text")

	if fontTimeout == 0 {
		if val := os.Getenv("FONT_TIMEOUT"); val != "" {
			intVal, err := strconv.Atoi(val)
			if err != nil || intVal <= 0 {
				return fmt.Errorf("FONT_TIMEOUT must be a positive number of seconds, got %q", val)
			}
			fontTimeout = intVal
		}
	}
	if fontTimeout <= 0 {
		fontTimeout = int(utils.DefaultFontTimeout / time.Second)
	}
	if !keepNames {
		keepNames = os.Getenv("KEEP_NAMES") == "true"
	}
	if !dryRun {
		dryRun = os.Getenv("DRY_RUN") == "true"
	}

	for name, value := range map[string]string{"BOLD": bold, "BORDER": border} {
		if value == "" {
			continue
		}
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", name, value)
		}
	}
	return nil
}

func stringFromEnv(target *string, key, fallback string) {
	if *target == "" {
		*target = strings.TrimSpace(os.Getenv(key))
	}
	if *target == "" {
		*target = fallback
	}
}

/**************************************************************************************************
** applyOptionOverrides replaces the job's options with the ones given by flags or environment
** variables. Empty values keep what the job file says.
**
** @param job - Job loaded from the job file, defaults already applied
**************************************************************************************************/
func applyOptionOverrides(job *utils.TJob) {
	overrides := []struct {
		value  string
		target *string
	}{
		{position, &job.Options.Position},
		{fontSize, &job.Options.FontSize},
		{textColor, &job.Options.TextColor},
		{borderWidth, &job.Options.BorderWidth},
		{borderColor, &job.Options.BorderColor},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}
	if v, err := strconv.ParseBool(bold); err == nil {
		job.Options.Bold = v
	}
	if v, err := strconv.ParseBool(border); err == nil {
		job.Options.HasBorder = v
	}
	if keepNames {
		job.KeepNames = true
	}
}

/**************************************************************************************************
** logStartupSummary logs the effective configuration once, as fields in JSON mode and as a
** single line otherwise.
**************************************************************************************************/
func logStartupSummary(logger *logrus.Logger) {
	remote := remoteURL
	if remote == "" {
		remote = "local"
	}

	if _, ok := logger.Formatter.(*logrus.JSONFormatter); ok {
		logger.WithFields(logrus.Fields{
			"jobFile":     jobFile,
			"output":      output,
			"remote":      remote,
			"fontFile":    fontFile,
			"fontTimeout": fontTimeout,
			"keepNames":   keepNames,
			"listenAddr":  listenAddr,
			"logLevel":    logLevel,
			"logFormat":   logFormat,
			"dryRun":      dryRun,
			"apiKeySet":   apiKey != "",
		}).Info("Configuration loaded")
		return
	}

	parts := []string{
		"job=" + jobFile,
		"remote=" + remote,
		"font-timeout=" + strconv.Itoa(fontTimeout) + "s",
		"keep-names=" + strconv.FormatBool(keepNames),
		"level=" + logLevel,
		"format=" + logFormat,
		"dry-run=" + strconv.FormatBool(dryRun),
	}
	if output != "" {
		parts = append(parts, "output="+output)
	}
	if fontFile != "" {
		parts = append(parts, "font="+fontFile)
	}
	logger.Info("Starting with config: " + strings.Join(parts, " "))
}
