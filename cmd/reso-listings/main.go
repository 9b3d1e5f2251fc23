// Package main is the entry point for the reso-listings service and CLI.
package main

import (
	"github.com/donaldgifford/reso-listings/cmd/reso-listings/cmd"
)

func main() {
	cmd.Execute()
}
