// Command searchcli indexes documents read from stdin and prints the top
// documents for every query line that follows them.
//
//	printf 'in the\n1\ncat in the city\n1 5\ncat\n' | searchcli
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-search-server/internal/console"
	"github.com/tbourn/go-search-server/internal/sysutil"
	"github.com/tbourn/go-search-server/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Diagnostics go to stderr so stdout carries results only.
	sysutil.SetupLogger(os.Stderr, sysutil.FirstNonEmpty(os.Getenv("LOG_LEVEL"), "warn"),
		sysutil.IsTruthy(os.Getenv("LOG_PRETTY")), "searchcli")

	opts := console.Options{
		MaxResults: utils.AtoiDefault(os.Getenv("MAX_RESULTS"), 0),
		Logger:     log.Logger,
	}
	if err := console.Run(os.Stdin, os.Stdout, opts); err != nil {
		log.Error().Err(err).Msg("searchcli failed")
		os.Exit(1)
	}
}
