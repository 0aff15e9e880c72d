package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/taskhive/taskhive/internal/cli"
)

func main() {

	var opts cli.Options
	flag.StringVar(&opts.ServerAddr, "s", "http://localhost:8081", "server address")
	flag.StringVar(&opts.Username, "u", "", "username")
	flag.StringVar(&opts.Password, "p", "", "password (prompted if omitted)")
	flag.StringVar(&opts.AccessLevel, "l", "customer", "access level (customer or worker)")
	flag.Parse()

	app := cli.NewApp(opts, os.Stdout)

	if err := app.Run(context.Background(), flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
