package main

import (
	"os"

	ledgerviewcmder "github.com/papercomputeco/ledgerview/cmd/ledgerview"
)

func main() {
	cmd := ledgerviewcmder.NewLedgerviewCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
