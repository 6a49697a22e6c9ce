package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/validation"
	"staff-loans/internal/loan/affordability"
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/loan/wizard"
	"staff-loans/internal/models"
)

var affordCommand = &cli.Command{
	Name:  "afford",
	Usage: "Compute the affordability ceiling for a salary and tenure",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "salary", Aliases: []string{"s"}, Usage: "Net monthly salary", Required: true},
		&cli.IntFlag{Name: "tenure", Aliases: []string{"t"}, Usage: "Tenure in months", Required: true},
		&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "Requested loan amount to cap"},
	},
	Action: func(c *cli.Context) error {
		salary, err := decimal.NewFromString(c.String("salary"))
		if err != nil {
			return fmt.Errorf("invalid salary: %w", err)
		}
		tenure := c.Int("tenure")

		ceiling, ok := affordability.Ceiling(salary, tenure)
		if !ok {
			return fmt.Errorf("affordability is undefined for salary %s and tenure %d", salary, tenure)
		}

		out := c.App.Writer
		fmt.Fprintf(out, "max monthly repayment: %s\n", affordability.MaxMonthlyRepayment(salary).StringFixed(2))
		fmt.Fprintf(out, "max loan amount:       %s\n", ceiling.StringFixed(2))

		if raw := c.String("amount"); raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			capped, clamped := affordability.Clamp(amount, salary, tenure)
			note := ""
			if clamped {
				note = " (capped)"
			}
			fmt.Fprintf(out, "loan amount:           %s%s\n", capped.StringFixed(2), note)
		}
		return nil
	},
}

var docsCommand = &cli.Command{
	Name:      "docs",
	Usage:     "List the supporting documents a product type requires",
	ArgsUsage: "[PRODUCT_TYPE]",
	Action: func(c *cli.Context) error {
		out := c.App.Writer
		if c.NArg() == 0 {
			for _, pt := range documents.KnownProductTypes() {
				fmt.Fprintln(out, pt)
			}
			return nil
		}

		productType := models.ProductType(c.Args().First())
		if !documents.IsKnown(productType) {
			fmt.Fprintf(out, "unknown product type %s, using the default set\n", productType)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tREQUIRED\tLABEL")
		for _, r := range documents.Resolve(productType) {
			fmt.Fprintf(tw, "%s\t%t\t%s\n", r.Key, r.Required, r.Label)
		}
		return tw.Flush()
	},
}

var scoreCommand = &cli.Command{
	Name:      "score",
	Usage:     "Score an application snapshot and show where it would resume",
	ArgsUsage: "FILE (use - for stdin)",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected one snapshot file")
		}
		app, err := readSnapshot(c.Args().First(), c.App.Reader)
		if err != nil {
			return err
		}

		score := completeness.ScoreApplication(app)
		step := wizard.ResumePosition(app, documents.Resolve(app.ProductType))

		out := c.App.Writer
		fmt.Fprintf(out, "completeness: %d%% (%s)\n", score.Percent(), completeness.IndicatorFor(score))
		fmt.Fprintf(out, "  main fields: %t\n", score.MainFieldsComplete)
		fmt.Fprintf(out, "  agreements:  %t\n", score.AgreementsComplete)
		fmt.Fprintf(out, "  documents:   %.1f/%.0f\n", score.DocumentScore, completeness.DocumentsPoints)
		if missing := documents.MissingRequired(documents.Resolve(app.ProductType), app.SupportingDocuments); len(missing) > 0 {
			fmt.Fprintf(out, "missing documents: %v\n", documents.Keys(missing))
		}
		if wizard.CanResume(app) {
			fmt.Fprintf(out, "resume at: %s (step %d)\n", step, int(step))
		}
		return nil
	},
}

func readSnapshot(path string, stdin io.Reader) (*models.LoanApplication, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if res := validation.ApplicationSnapshot.Validate(raw); !res.Valid {
		return nil, fmt.Errorf("invalid application snapshot: %s", apperrors.Normalize(res.Err()).Details)
	}
	var app models.LoanApplication
	if err := json.Unmarshal(raw, &app); err != nil {
		return nil, err
	}
	return &app, nil
}
