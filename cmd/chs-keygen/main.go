// chs-keygen prints a random shared secret for CHS_HANDSHAKE_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/chs/internal/keygen"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ chs-keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("chs-keygen", pflag.ContinueOnError)
	size := flagSet.IntP("bytes", "b", keygen.DefaultBytes, "number of random bytes (hex output is twice as long)")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	key, err := keygen.Generate(*size)
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}
