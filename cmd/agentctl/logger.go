// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/supportbuddy/agentctl/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
)

// initLoggerFromCLI initializes the default logger.
// Priority: CLI flags > env vars > defaults (info, simple, stderr).
func initLoggerFromCLI(cliLogLevel, cliLogFile, cliLogFormat string, stderr io.Writer) (func(), error) {
	logLevel := firstNonEmpty(cliLogLevel, os.Getenv(LogLevelEnvVar), "info")
	logFile := firstNonEmpty(cliLogFile, os.Getenv(LogFileEnvVar))
	logFormat := firstNonEmpty(cliLogFormat, os.Getenv(LogFormatEnvVar), logger.FormatSimple)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	output := stderr
	cleanup := func() {}
	if logFile != "" {
		file, closeFile, err := logger.OpenLogFile(logFile)
		if err != nil {
			return nil, err
		}
		output, cleanup = file, closeFile
	}

	logger.Init(level, output, format)
	return cleanup, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
