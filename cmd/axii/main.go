// axii tracks artists and scores them on three indices: media visibility
// (CCI), audience engagement (EES) and auction-market activity (RSMI).
//
// Usage:
//
//	axii serve [--config=config/config.yaml]
//	axii fetch "Cao Fei" "Yayoi Kusama" [--news-api-key=...] [--json]
//	axii version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
