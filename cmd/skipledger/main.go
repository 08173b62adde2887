// main.go -- skipledger: a CLI around the core SkipLedger, PathPack and
// witness operations, built on cobra per the process surface in §6.3.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"errors"
	"fmt"
	"os"

	skipledger "github.com/opencoff/go-skipledger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes per §6.3.
const (
	exitOK            = 0
	exitMalformed     = 1
	exitHashConflict  = 2
	exitStorageIO     = 3
	exitConfiguration = 4
	exitUsage         = 64
)

var log = logrus.New()

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitFromError(err))
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "skipledger",
		Short:         "Inspect and extend append-only skipledgers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			} else {
				log.SetLevel(logrus.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(),
		newAppendCmd(),
		newPathCmd(),
		newVerifyCmd(),
		newWitnessCmd(),
	)
	return root
}

// usageError marks an error that should exit with exitUsage rather than
// being classified by Kind.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func exitFromError(err error) int {
	if err == nil {
		return exitOK
	}
	if _, ok := err.(usageError); ok {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	fmt.Fprintln(os.Stderr, err)

	var sle *skipledger.Error
	if !errors.As(err, &sle) {
		return exitStorageIO
	}
	switch sle.Kind {
	case skipledger.KindMalformed, skipledger.KindBadType, skipledger.KindOversize, skipledger.KindOutOfRange:
		return exitMalformed
	case skipledger.KindHashConflict:
		return exitHashConflict
	case skipledger.KindStorageIO:
		return exitStorageIO
	case skipledger.KindConcurrent, skipledger.KindClosed:
		return exitConfiguration
	default:
		return exitStorageIO
	}
}
