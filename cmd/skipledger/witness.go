package main

import (
	"os"
	"strconv"

	"github.com/opencoff/go-skipledger/store"
	"github.com/spf13/cobra"
)

func newWitnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "witness REPO ROWNO TRAILFILE",
		Short: "Attach an opaque crumtrail blob (read from TRAILFILE) to a row",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := store.OpenFileWitnessRepo(args[0])
			if err != nil {
				return err
			}
			defer repo.Close()

			rowNo, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return usageError{err}
			}

			trail, err := os.ReadFile(args[2])
			if err != nil {
				return usageError{err}
			}

			if err := repo.PutTrail(trail, rowNo); err != nil {
				return err
			}
			log.WithField("row", rowNo).WithField("bytes", len(trail)).Infof("%s witnessed", args[0])
			return nil
		},
	}
	return cmd
}
