package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"staff-loans/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

var registryPathFlag = &cli.StringFlag{
	Name:    "path",
	Aliases: []string{"p"},
	Usage:   "Activity registry file",
	Value:   defaultRegistryPath,
}

var registryCommand = &cli.Command{
	Name:  "registry",
	Usage: "Inspect and maintain the activity registry",
	Subcommands: []*cli.Command{
		{
			Name:  "validate",
			Usage: "Check the registry document and every embedded schema",
			Flags: []cli.Flag{registryPathFlag},
			Action: func(c *cli.Context) error {
				reg, err := registry.LoadRegistry(c.String("path"))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "registry %s is valid: %d activities\n", reg.Version, len(reg.Activities))
				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List activities and their implementation status",
			Flags: []cli.Flag{registryPathFlag},
			Action: func(c *cli.Context) error {
				reg, err := registry.LoadRegistry(c.String("path"))
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
				for _, a := range reg.Activities {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
				}
				return tw.Flush()
			},
		},
		{
			Name:  "status",
			Usage: "Set an activity's implementation status",
			Flags: []cli.Flag{
				registryPathFlag,
				&cli.StringFlag{Name: "id", Usage: "Activity id", Required: true},
				&cli.StringFlag{Name: "status", Usage: "implemented, planned or deprecated", Required: true},
			},
			Action: func(c *cli.Context) error {
				path := c.String("path")
				reg, err := registry.LoadRegistry(path)
				if err != nil {
					return err
				}
				if err := reg.SetStatus(c.String("id"), c.String("status")); err != nil {
					return err
				}
				if err := reg.Save(path); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%s is now %s\n", c.String("id"), c.String("status"))
				return nil
			},
		},
	},
}
