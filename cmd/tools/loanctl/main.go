package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"staff-loans/internal/common/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.New("info", "console").Fatal("loanctl failed", zap.Error(err))
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "loanctl",
		Usage:  "Operator tool for the staff loan workers",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file; defaults to configs/config.yaml lookup",
				EnvVars: []string{"LOANCTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level for backend commands",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			affordCommand,
			docsCommand,
			scoreCommand,
			registryCommand,
			productsCommand,
			portfolioCommand,
			guarantorCommand,
		},
	}
}
