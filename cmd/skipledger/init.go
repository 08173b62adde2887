package main

import (
	"encoding/hex"
	"os"

	skipledger "github.com/opencoff/go-skipledger"
	"github.com/opencoff/go-skipledger/store"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var cache int
	var seedOut string

	cmd := &cobra.Command{
		Use:   "init FILE",
		Short: "Create a new, empty ledger row table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := store.OpenFileTable(args[0], cache)
			if err != nil {
				return err
			}
			defer tbl.Close()

			sz, err := tbl.Size()
			if err != nil {
				return err
			}
			log.WithField("rows", sz).Infof("%s ready", args[0])

			if seedOut != "" {
				seed := skipledger.NewRandomSeed()
				if err := os.WriteFile(seedOut, []byte(hex.EncodeToString(seed)+"\n"), 0600); err != nil {
					return err
				}
				log.WithField("file", seedOut).Info("wrote fresh salter seed")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&cache, "cache", "c", 256, "row read-cache size")
	cmd.Flags().StringVar(&seedOut, "seed-out", "", "write a fresh crypto/rand salter seed to `FILE`")
	return cmd
}
