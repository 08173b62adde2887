package main

import (
	"fmt"
	"os"

	skipledger "github.com/opencoff/go-skipledger"
	"github.com/opencoff/go-skipledger/store"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var ledgerFile string
	var cache int

	cmd := &cobra.Command{
		Use:   "verify PACKFILE",
		Short: "Decode a PathPack and, if --ledger is given, check every row hash in it against that ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return usageError{err}
			}

			pack, err := skipledger.UnmarshalPathPack(b)
			if err != nil {
				return err
			}

			path, err := pack.Path()
			if err != nil {
				return err
			}

			var d skipledger.Digest
			if ledgerFile == "" {
				log.WithField("rows", len(path.Rows)).Infof("%s: structurally valid", args[0])
				return nil
			}

			tbl, err := store.OpenFileTable(ledgerFile, cache)
			if err != nil {
				return err
			}
			defer tbl.Close()

			l, err := skipledger.Open(tbl)
			if err != nil {
				return err
			}

			for _, row := range path.Rows {
				want, err := l.RowHash(row.RowNo)
				if err != nil {
					return err
				}
				got := row.RowHash(&d)
				if got != want {
					return &skipledgerVerifyErr{row: row.RowNo}
				}
			}
			fmt.Printf("%s: %d rows verified against %s\n", args[0], len(path.Rows), ledgerFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&ledgerFile, "ledger", "", "ledger `FILE` to verify the pack's row hashes against")
	cmd.Flags().IntVarP(&cache, "cache", "c", 256, "row read-cache size")
	return cmd
}

type skipledgerVerifyErr struct{ row uint64 }

func (e *skipledgerVerifyErr) Error() string {
	return fmt.Sprintf("row %d: pack hash disagrees with ledger", e.row)
}

func (e *skipledgerVerifyErr) Unwrap() error {
	return &skipledger.Error{Kind: skipledger.KindHashConflict, Msg: e.Error()}
}
