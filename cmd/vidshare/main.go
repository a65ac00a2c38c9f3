package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var baseFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "path to the YAML config file",
		Value:   "configs/config.yaml",
		EnvVars: []string{"VIDSHARE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "storage",
		Usage:   "storage driver override: memory, redis or postgres",
		EnvVars: []string{"VIDSHARE_STORAGE_DRIVER"},
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "debug log level with the console formatter",
	},
}

func main() {
	app := &cli.App{
		Name:        "vidshare",
		Usage:       "video sharing admin API",
		Description: "run without subcommands to start the server",
		Flags:       baseFlags,
		Action:      startServer,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: startServer,
			},
			{
				Name:   "seed",
				Usage:  "create the bootstrap admin and sample videos, then exit",
				Action: runSeed,
			},
			{
				Name:   "hash-password",
				Usage:  "print the bcrypt digest of a password",
				Action: hashPassword,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "password",
						Usage:    "plaintext password",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
