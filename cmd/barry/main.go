// Command barry inspects entity relations and delivers notifications.
package main

import (
	"fmt"
	"os"

	"github.com/bowphp/framework-sub003/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
