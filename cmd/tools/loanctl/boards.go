package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"staff-loans/internal/common/config"
	"staff-loans/internal/common/database"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/loan/catalog"
	"staff-loans/internal/loan/guarantor"
	"staff-loans/internal/loan/poller"
	"staff-loans/internal/loan/portfolio"
	"staff-loans/internal/models"
	"staff-loans/internal/store"
	"staff-loans/internal/store/esproducts"
)

var staffIDFlag = &cli.StringFlag{
	Name:     "staff-id",
	Usage:    "Staff member to act as",
	EnvVars:  []string{"LOAN_STAFF_ID"},
	Required: true,
}

var portfolioCommand = &cli.Command{
	Name:  "portfolio",
	Usage: "Show a staff member's loan applications with completeness",
	Flags: []cli.Flag{
		staffIDFlag,
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep polling until interrupted"},
		&cli.DurationFlag{Name: "interval", Usage: "Watch interval; defaults to loan.poll_interval"},
	},
	Action: func(c *cli.Context) error {
		return withBackend(c, func(ctx context.Context, cfg *config.Config, b backend, log logger.Logger) error {
			board := portfolio.NewBoard(b, c.String("staff-id"), log)
			out := c.App.Writer

			if !c.Bool("watch") {
				if err := board.Refresh(ctx); err != nil {
					return err
				}
				return printBoard(out, board)
			}

			interval := c.Duration("interval")
			if interval <= 0 {
				interval = config.GetDuration(cfg.Loan.PollInterval)
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := poller.New("portfolio", interval, func(ctx context.Context) error {
				if err := board.Refresh(ctx); err != nil {
					return err
				}
				fmt.Fprintf(out, "-- %s\n", time.Now().Format(time.TimeOnly))
				return printBoard(out, board)
			}, log)
			p.Start(ctx)
			<-ctx.Done()
			p.Stop()
			return nil
		})
	},
}

func printBoard(out io.Writer, board *portfolio.Board) error {
	s := board.Summary()
	fmt.Fprintf(out, "total %d, pending %d, accepted %d\n", s.Total, s.Pending, s.Accepted)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLICATION\tPRODUCT\tSTATUS\tCOMPLETE\tRESUMABLE")
	for _, e := range board.Entries() {
		app := e.Application
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%% (%s)\t%t\n",
			app.ApplicationID, app.LoanProductName, app.Status, e.Score.Percent(), e.Indicator, e.Resumable)
	}
	return tw.Flush()
}

var guarantorCommand = &cli.Command{
	Name:  "guarantor",
	Usage: "List the loans a staff member was asked to guarantee",
	Flags: []cli.Flag{
		staffIDFlag,
		&cli.BoolFlag{Name: "pending", Usage: "Only undecided invites"},
	},
	Action: func(c *cli.Context) error {
		return withBackend(c, func(ctx context.Context, _ *config.Config, b backend, log logger.Logger) error {
			w := guarantor.New(b, c.String("staff-id"), log)
			if err := w.Refresh(ctx); err != nil {
				return err
			}

			out := c.App.Writer
			fmt.Fprintf(out, "%d pending\n", w.PendingCount())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LOAN\tOWNER\tPRODUCT\tAMOUNT\tDECISION")
			for _, l := range w.Loans() {
				if c.Bool("pending") && l.GuarantorDecision.Terminal() {
					continue
				}
				decision := string(l.GuarantorDecision)
				if decision == "" {
					decision = "PENDING"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.LoanID, l.OwnerName, l.LoanProductName, l.LoanAmount.StringFixed(2), decision)
			}
			return tw.Flush()
		})
	},
}

var productsCommand = &cli.Command{
	Name:  "products",
	Usage: "Loan product catalog",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the products the configured client type can apply for",
			Action: func(c *cli.Context) error {
				return withBackend(c, func(ctx context.Context, cfg *config.Config, b backend, log logger.Logger) error {
					cat := catalog.New(b, nil, catalog.Options{ClientType: models.ClientType(cfg.Loan.ClientType)}, log)
					products, err := cat.Products(ctx)
					if err != nil {
						return err
					}

					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tTYPE\tMIN\tMAX")
					for _, p := range products {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.ProductType, p.MinAmount.String(), p.MaxAmount.String())
					}
					return tw.Flush()
				})
			},
		},
		{
			Name:  "reindex",
			Usage: "Copy the store's products into the search index",
			Action: func(c *cli.Context) error {
				return withBackend(c, func(ctx context.Context, cfg *config.Config, b backend, log logger.Logger) error {
					products, err := b.FetchLoanProducts(ctx, store.ProductFilter{ClientType: models.ClientType(cfg.Loan.ClientType)})
					if err != nil {
						return err
					}

					es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
					if err != nil {
						return err
					}
					index := cfg.Database.Elasticsearch.ProductIndex
					if err := es.EnsureIndex(ctx, index, esproducts.Mapping); err != nil {
						return err
					}
					if err := esproducts.New(es.Client, index, log).Index(ctx, products); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "indexed %d products into %s\n", len(products), index)
					return nil
				})
			},
		},
	},
}
