package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kenn-williamson/cherub/internal/cli"
	"github.com/kenn-williamson/cherub/pkg/buildinfo"
)

var version = "dev"
var commit = "unknown"

func main() {
	ctx := context.Background()
	if err := cli.NewRoot(buildinfo.Version(version, commit)).ExecuteContext(ctx); err != nil {
		var ee *cli.ExitError
		if errors.As(err, &ee) {
			if msg := ee.Message(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ee.Code())
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
