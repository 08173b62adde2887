// main.go -- ledgerdump: dump and verify a skipledger row table on disk.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// ledgerdump is an example of using store.FileTable directly, without
// going through the SkipLedger wrapper -- useful for inspecting a table
// file's raw rows or re-verifying every record's checksum.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/opencoff/go-skipledger/store"

	flag "github.com/opencoff/pflag"
)

func main() {
	var verify bool
	var cache int

	usage := fmt.Sprintf("%s [options] TABLE-FILE", os.Args[0])

	flag.BoolVarP(&verify, "verify", "V", false, "Verify every row's checksum")
	flag.IntVarP(&cache, "cache", "c", 256, "Use `N` cache entries")
	flag.Usage = func() {
		fmt.Printf("ledgerdump - inspect a skipledger row table\nUsage: %s\n", usage)
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		die("No table file given!\nUsage: %s\n", usage)
	}

	fn := args[0]
	tbl, err := store.OpenFileTable(fn, cache)
	if err != nil {
		die("can't open %s: %s", fn, err)
	}
	defer tbl.Close()

	sz, err := tbl.Size()
	if err != nil {
		die("%s: %s", fn, err)
	}

	fmt.Printf("%s: %d rows\n", fn, sz)
	for i := uint64(0); i < sz; i++ {
		row, err := tbl.ReadRow(i)
		if err != nil {
			die("%s: row %d: %s", fn, i, err)
		}
		if verify {
			continue
		}
		fmt.Printf("%8d  input %s  hash %s\n", i+1, hex.EncodeToString(row[:32]), hex.EncodeToString(row[32:]))
	}
	if verify {
		fmt.Printf("%s: all %d rows verified\n", fn, sz)
	}
}

func die(f string, v ...interface{}) {
	warn(f, v...)
	os.Exit(1)
}

func warn(f string, v ...interface{}) {
	z := fmt.Sprintf("%s: %s", os.Args[0], f)
	s := fmt.Sprintf(z, v...)
	if n := len(s); n > 0 && s[n-1] != '\n' {
		s += "\n"
	}
	fmt.Fprintf(os.Stderr, "%s", s)
}
