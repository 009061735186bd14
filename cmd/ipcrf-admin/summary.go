package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

func (cli *commandLine) summary(ctx context.Context, period string, status rating.Status) error {
	rated, err := cli.ratings.Rated(ctx, period, status)
	if err != nil {
		return err
	}

	color.New(color.FgYellow).Fprintf(cli.out, "\nIPCRF results %s\n", period)
	if len(rated) == 0 {
		fmt.Fprintln(cli.out, "no rated teachers")
		return nil
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Teacher", "Position", "Numerical Rating", "Adjectival Rating", "Status"})
	counts := make(map[rating.Label]int)
	for _, r := range rated {
		label, err := rating.Classify(r.NumericalRating)
		if err != nil {
			label = r.AdjectivalRating
		}
		counts[label]++
		table.Append([]string{
			r.FullName,
			r.Position,
			fmt.Sprintf("%.2f", r.NumericalRating),
			string(label),
			string(r.Status),
		})
	}
	table.Render()

	totals := tablewriter.NewWriter(cli.out)
	totals.SetHeader([]string{"Adjectival Rating", "Teachers"})
	for _, label := range rating.Labels() {
		totals.Append([]string{string(label), fmt.Sprintf("%d", counts[label])})
	}
	totals.Render()
	return nil
}
