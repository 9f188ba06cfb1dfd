package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   password hashing secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-n int      max live tokens per user
//	-w int      expired token sweep interval, minutes
//	-m bool     run migrations on startup
//	-l string   log level
//
// Duration flags are integers in minutes. They only replace the current value
// when given, so sub-minute values from the file or environment survive.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(configArgs(), []string{"-a", "-d", "-s", "-t", "-r", "-n", "-w", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "password hashing secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	sweepInterval := fs.Int("w", int(config.SweepInterval.Minutes()), "expired token sweep interval (in minutes)")

	fs.IntVar(&config.MaxTokensPerUser, "n", config.MaxTokensPerUser, "max live tokens per user")
	fs.BoolVar(&config.RunMigrations, "m", config.RunMigrations, "run migrations on startup")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		case "w":
			config.SweepInterval = time.Duration(*sweepInterval) * time.Minute
		}
	})
}
