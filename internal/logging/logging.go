// Package logging sets up the process-wide zerolog logger the way every
// other package in this module expects to find it: a pretty console writer
// by default, switching to plain JSON or a console+file tee when configured.
package logging

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const TimeFormat = "2006-01-02T15:04:05.000"

// Console configures the global logger to write pretty console output to
// stdout, using a colorable writer on Windows.
func Console() zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(viper.GetString("logging.level")))

	out := io.Writer(os.Stdout)
	if runtime.GOOS == "windows" {
		out = colorable.NewColorableStdout()
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: TimeFormat})
	return log.Logger
}

// Setup configures the global logger from viper settings: console format
// (pretty|json) and an optional file sink, fanned out with io.MultiWriter.
func Setup() zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(viper.GetString("logging.level")))
	sysType := runtime.GOOS

	var writers []io.Writer
	if viper.GetString("logging.console.format") == "pretty" {
		out := io.Writer(os.Stdout)
		if sysType == "windows" {
			out = colorable.NewColorableStdout()
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: TimeFormat})
	} else {
		writers = append(writers, os.Stdout)
	}

	if viper.GetBool("logging.file.enabled") {
		path := viper.GetString("logging.file.path")
		if path == "" {
			path = "a11yscan.log"
		}
		logFile, err := openOrCreate(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("could not open log file, continuing with console only")
		} else {
			writers = append(writers, logFile)
		}
	}

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func openOrCreate(path string) (*os.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.Create(path)
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0666)
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
