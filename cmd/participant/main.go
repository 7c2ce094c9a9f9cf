// participant runs one simulated member of the identity verification
// network: an identity provider, a relying party or an authoritative source.
//
// Usage:
//
//	participant idp --config idp.yaml
//	participant rp
//	participant as
//
// Every setting can also be given as a PARTICIPANT_* environment variable.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
