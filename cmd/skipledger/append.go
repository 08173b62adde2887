package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	skipledger "github.com/opencoff/go-skipledger"
	"github.com/opencoff/go-skipledger/store"
	"github.com/spf13/cobra"
)

func newAppendCmd() *cobra.Command {
	var inputFile string
	var cache int

	cmd := &cobra.Command{
		Use:   "append FILE",
		Short: "Append input hashes (one 64-char hex string per line) to a ledger",
		Args:  cobra.ExactArgs(1),
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

			in := os.Stdin
			if inputFile != "" {
				f, err := os.Open(inputFile)
				if err != nil {
					return usageError{err}
				}
				defer f.Close()
				in = f
			}

			hashes, err := readInputHashes(in)
			if err != nil {
				return err
			}

			newSize, err := l.Append(hashes)
			if err != nil {
				return err
			}
			log.WithField("rows", len(hashes)).WithField("size", newSize).Infof("%s appended", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&inputFile, "in", "", "read input hashes from `FILE` instead of stdin")
	cmd.Flags().IntVarP(&cache, "cache", "c", 256, "row read-cache size")
	return cmd
}

func readInputHashes(r io.Reader) ([]skipledger.Hash, error) {
	var out []skipledger.Hash
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		b, err := hex.DecodeString(line)
		if err != nil {
			return nil, usageError{err}
		}
		if len(b) != skipledger.HashSize {
			return nil, usageError{fmt.Errorf("line %q: want %d hex bytes, got %d", line, skipledger.HashSize, len(b))}
		}
		out = append(out, skipledger.HashFromBytes(b))
	}
	if err := sc.Err(); err != nil {
		return nil, usageError{err}
	}
	return out, nil
}
