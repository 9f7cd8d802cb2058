package main

import (
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
