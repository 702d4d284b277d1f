// Package logger provides the tagged console output used across the app.
// All lines go through one zerolog console writer; packages outside this
// one never print directly.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// stdout defers the os.Stdout lookup to write time so tests can redirect it.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

var out = zerolog.New(zerolog.ConsoleWriter{
	Out:        stdout{},
	TimeFormat: "15:04:05",
}).With().Timestamp().Logger()

// The global zerolog logger shares the console writer, so packages that log
// structured fields directly land in the same stream.
func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = out
}

// SetDebug switches the global level between info and debug.
func SetDebug(enabled bool) {
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Info logs a tagged informational line.
func Info(tag, msg string) {
	out.Info().Str("tag", tag).Msg(msg)
}

// Success logs a tagged line for a completed step.
func Success(tag, msg string) {
	out.Info().Str("tag", tag).Bool("ok", true).Msg(msg)
}

// Warn logs a tagged warning line.
func Warn(tag, msg string) {
	out.Warn().Str("tag", tag).Msg(msg)
}

// Error logs a tagged error line.
func Error(tag, msg string) {
	out.Error().Str("tag", tag).Msg(msg)
}

// Banner prints the startup header.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Fprintln(os.Stdout, `  _____      _                _____ _ _`)
	fmt.Fprintln(os.Stdout, ` |  __ \    (_)              |  ___| (_)`)
	fmt.Fprintln(os.Stdout, ` | |__) | __ _ _ __ ___   ___| |_  | |_ _ __`)
	fmt.Fprintln(os.Stdout, ` |  ___/ '__| | '_ ' _ \ / _ \  _| | | | '_ \`)
	fmt.Fprintln(os.Stdout, ` | |   | |  | | | | | | |  __/ |   | | | |_) |`)
	fmt.Fprintln(os.Stdout, ` |_|   |_|  |_|_| |_| |_|\___|_|   |_|_| .__/`)
	fmt.Fprintln(os.Stdout, `                                       |_|`)
	out.Info().Str("version", version).Msg("primeflip")
}

// Section prints a visual divider before a new phase of work.
func Section(name string) {
	out.Info().Msg("── " + name + " " + strings.Repeat("─", max(0, 40-len(name))))
}

// Stats logs one named figure. Integer values get thousands separators.
func Stats(key string, value interface{}) {
	switch v := value.(type) {
	case int:
		out.Info().Str(key, humanize.Comma(int64(v))).Msg("stats")
	case int64:
		out.Info().Str(key, humanize.Comma(v)).Msg("stats")
	case float64:
		out.Info().Str(key, humanize.CommafWithDigits(v, 2)).Msg("stats")
	default:
		out.Info().Interface(key, value).Msg("stats")
	}
}

// Server logs the listen address once the HTTP server is up.
func Server(addr string) {
	out.Info().Str("addr", "http://"+addr).Msg("serving")
}

// Debug logs a tagged debug line, visible only with SetDebug(true).
func Debug(tag, msg string) {
	out.Debug().Str("tag", tag).Msg(msg)
}
