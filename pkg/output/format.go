// Package output provides utilities for formatting and displaying analysis reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/airline-analytics/internal/report"
	"github.com/iwvelando/airline-analytics/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(r *report.Report) {
	WritePretty(os.Stdout, r)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(r *report.Report) {
	fmt.Print(CsvString(r))
}

// JSONFormat outputs the full report as indented JSON.
func JSONFormat(r *report.Report) error {
	return WriteJSON(os.Stdout, r)
}

// WritePretty renders the report as aligned tables.
func WritePretty(w io.Writer, r *report.Report) {
	p := message.NewPrinter(language.English)
	ob := r.Overbooking

	_, _ = p.Fprintf(w, "--- Overbooking risk (capacity %d, show-up %s) ---\n",
		ob.Parameters.Capacity, format.Percent(ob.Parameters.ShowUpProbability))
	_, _ = fmt.Fprintf(w, "Sold | Overbooking risk\n")
	_, _ = fmt.Fprintf(w, "____ | ________________\n")
	for _, point := range ob.Curve {
		marker := ""
		if point.Probability > ob.RiskCeiling {
			marker = " *"
		}
		_, _ = p.Fprintf(w, "%-4d | %s%s\n", point.Sales, format.Percent(point.Probability), marker)
	}
	_, _ = fmt.Fprintf(w, "Risk ceiling: %s (* marks counts above it)\n", format.Percent(ob.RiskCeiling))
	if ob.SafeLimit != nil {
		_, _ = p.Fprintf(w, "Safe sales limit: %d tickets\n", *ob.SafeLimit)
	} else {
		_, _ = fmt.Fprintf(w, "Safe sales limit: none - every sales count exceeds the ceiling\n")
	}
	if ob.SoldRisk != nil {
		_, _ = p.Fprintf(w, "Risk with %d tickets sold: %s\n", ob.Sold, format.Percent(*ob.SoldRisk))
	}

	s := r.ROI.Summary
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = p.Fprintf(w, "--- ROI simulation (%d draws, seed %d) ---\n", len(s.ROIValues), r.Seed)
	_, _ = fmt.Fprintf(w, "Expected ROI: %s\n", format.PercentagePoints(s.RealisticROI))
	_, _ = fmt.Fprintf(w, "Mean simulated ROI: %s\n", format.PercentagePoints(s.MeanROI))
	_, _ = fmt.Fprintf(w, "ROI P5 / P50 / P95: %s / %s / %s\n",
		format.PercentagePoints(s.Percentiles.P5),
		format.PercentagePoints(s.Percentiles.P50),
		format.PercentagePoints(s.Percentiles.P95))
	_, _ = fmt.Fprintf(w, "Probability revenue below %s: %s\n",
		format.Currency(s.RevenueThreshold), format.Percent(s.TailProbability))
	_, _ = fmt.Fprintf(w, "Probability of a loss: %s\n", format.Percent(s.LossProbability))
	_, _ = fmt.Fprintf(w, "Scenario    | Revenue         | ROI\n")
	_, _ = fmt.Fprintf(w, "________    | _______         | ___\n")
	for _, scenario := range r.ROI.Scenarios {
		_, _ = fmt.Fprintf(w, "%-11s | %-15s | %s\n",
			scenario.Name, format.Currency(scenario.Revenue), format.PercentagePoints(scenario.ROI))
	}
}

// CsvString renders the risk curve and the scenario table as two CSV blocks
// separated by a blank line.
func CsvString(r *report.Report) string {
	var b strings.Builder
	ob := r.Overbooking

	b.WriteString(`"sales","overbooking probability","within ceiling"` + "\n")
	for _, point := range ob.Curve {
		fmt.Fprintf(&b, `"%d","%.8f","%t"`+"\n", point.Sales, point.Probability, point.Probability <= ob.RiskCeiling)
	}

	b.WriteString("\n")
	b.WriteString(`"scenario","revenue","roi (%)"` + "\n")
	for _, scenario := range r.ROI.Scenarios {
		fmt.Fprintf(&b, `"%s","%.2f","%.4f"`+"\n", scenario.Name, scenario.Revenue, scenario.ROI)
	}
	return b.String()
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, r *report.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
