package config

import (
	"flag"
	"os"
	"time"

	"github.com/parlor-chat/parlor/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   websocket bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      token stale age, days
//	-e int      token expiry age, days
//	-w int      token sweep interval, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Day and
// second flags are converted to time.Duration values after parsing.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-e", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	staleDays := fs.Int("t", int(config.TokenStaleAge.Hours()/24), "token_stale_days")
	expiryDays := fs.Int("e", int(config.TokenExpiryAge.Hours()/24), "token_expiry_days")
	sweepSecs := fs.Int("w", int(config.TokensSweepInterval.Seconds()), "tokens_sweep_interval_secs")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenStaleAge = time.Duration(*staleDays) * 24 * time.Hour
	config.TokenExpiryAge = time.Duration(*expiryDays) * 24 * time.Hour
	config.TokensSweepInterval = time.Duration(*sweepSecs) * time.Second
}
