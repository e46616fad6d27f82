// Command billctl exposes the invoice processing building blocks on the
// command line: JSON repair, PDF splitting, date normalisation and line item
// reconciliation.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
