package main

import (
	"fmt"
	"os"
	"strconv"

	skipledger "github.com/opencoff/go-skipledger"
	"github.com/opencoff/go-skipledger/store"
	"github.com/spf13/cobra"
)

func newPathCmd() *cobra.Command {
	var condensed bool
	var outFile string
	var cache int

	cmd := &cobra.Command{
		Use:   "path FILE ROWNO [ROWNO...]",
		Short: "Build a PathPack over the given (ascending) row numbers",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := store.OpenFileTable(args[0], cache)
			if err != nil {
				return err
			}
			defer tbl.Close()

			l, err := skipledger.Open(tbl)
			if err != nil {
				return err
			}

			targets := make([]uint64, 0, len(args)-1)
			for _, a := range args[1:] {
				n, err := strconv.ParseUint(a, 10, 64)
				if err != nil {
					return usageError{err}
				}
				targets = append(targets, n)
			}

			p, err := l.GetPath(targets)
			if err != nil {
				return err
			}

			pack := skipledger.ForPath(p)
			if condensed {
				pack, err = pack.Condense()
				if err != nil {
					return err
				}
			}

			b, err := pack.MarshalBinary()
			if err != nil {
				return err
			}

			out := os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return usageError{err}
				}
				defer f.Close()
				out = f
			}
			if _, err := out.Write(b); err != nil {
				return err
			}
			log.WithField("rows", len(pack.Inputs)).WithField("type", pack.Type).Debug("pathpack built")
			if outFile == "" {
				fmt.Fprintln(os.Stderr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&condensed, "condensed", false, "produce a condensed pack")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write pack to `FILE` instead of stdout")
	cmd.Flags().IntVarP(&cache, "cache", "c", 256, "row read-cache size")
	return cmd
}
