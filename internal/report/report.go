// Package report renders optimization results and stored history.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/investment-optimizer/internal/allocation"
	"github.com/iwvelando/investment-optimizer/internal/store"
	"github.com/iwvelando/investment-optimizer/pkg/constants"
	"github.com/iwvelando/investment-optimizer/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Named pairs a result with the input it was computed from.
type Named struct {
	Source            string `json:"source" yaml:"source"`
	allocation.Result `yaml:",inline"`
}

// Write renders results in the given output format.
func Write(w io.Writer, outputFormat string, results []Named) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return writePretty(w, results)
	case constants.OutputFormatCSV:
		return writeCSV(w, results)
	case constants.OutputFormatJSON:
		return writeJSON(w, results)
	case constants.OutputFormatYAML:
		return writeYAML(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// WriteRecords renders stored results in the given output format.
func WriteRecords(w io.Writer, outputFormat string, records []store.Record) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return writeRecordsPretty(w, records)
	case constants.OutputFormatCSV:
		return writeRecordsCSV(w, records)
	case constants.OutputFormatJSON:
		return writeJSON(w, records)
	case constants.OutputFormatYAML:
		return writeYAML(w, records)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// errWriter keeps the first write error. A nil printer writes unlocalized.
type errWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (ew *errWriter) printf(formatString string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	if ew.p == nil {
		_, ew.err = fmt.Fprintf(ew.w, formatString, args...)
		return
	}
	_, ew.err = ew.p.Fprintf(ew.w, formatString, args...)
}

func writePretty(w io.Writer, results []Named) error {
	ew := &errWriter{w: w, p: message.NewPrinter(language.English)}
	for i, named := range results {
		stats := named.Statistics
		ew.printf("--- Optimal allocation for %s ---\n", named.Source)
		ew.printf("Maximum profit:   %s\n", format.Amount(named.MaxProfit))
		ew.printf("Total investment: %s\n", format.Amount(stats.TotalInvestment))
		ew.printf("Overall ROI:      %s\n", format.Percent(stats.ROI))
		ew.printf("Enterprise | Investment | Profit | ROI\n")
		ew.printf("__________ | __________ | ______ | ___\n")
		for _, detail := range stats.Enterprises {
			ew.printf("%s | %s | %s | %s\n",
				fmt.Sprintf("%10d", detail.EnterpriseID),
				format.Amount(detail.Investment),
				format.Amount(detail.Profit),
				format.Percent(detail.ROI),
			)
		}
		if i < len(results)-1 {
			ew.printf("\n")
		}
	}
	return ew.err
}

func writeCSV(w io.Writer, results []Named) error {
	ew := &errWriter{w: w}
	ew.printf(`"source","enterprise","investment","profit","roi"` + "\n")
	for _, named := range results {
		source := quote(named.Source)
		for _, detail := range named.Statistics.Enterprises {
			ew.printf(`"%s","%d","%s","%s","%s"`+"\n",
				source,
				detail.EnterpriseID,
				format.Fixed(detail.Investment),
				format.Fixed(detail.Profit),
				format.Fixed(detail.ROI),
			)
		}
		ew.printf(`"%s","total","%s","%s","%s"`+"\n",
			source,
			format.Fixed(named.Statistics.TotalInvestment),
			format.Fixed(named.MaxProfit),
			format.Fixed(named.Statistics.ROI),
		)
	}
	return ew.err
}

func writeRecordsPretty(w io.Writer, records []store.Record) error {
	ew := &errWriter{w: w, p: message.NewPrinter(language.English)}
	if len(records) == 0 {
		ew.printf("No stored results\n")
		return ew.err
	}
	ew.printf("ID                                   | Created              | File | Max profit | Investment | ROI\n")
	ew.printf("__                                   | _______              | ____ | __________ | __________ | ___\n")
	for _, record := range records {
		ew.printf("%s | %s | %s | %s | %s | %s\n",
			record.ID,
			record.CreatedAt.UTC().Format(time.RFC3339),
			record.FileName,
			format.Amount(record.MaxProfit),
			format.Amount(record.TotalInvestment),
			format.Percent(record.ROI),
		)
	}
	ew.printf("%d stored results\n", len(records))
	return ew.err
}

func writeRecordsCSV(w io.Writer, records []store.Record) error {
	ew := &errWriter{w: w}
	ew.printf(`"id","created_at","file_name","max_profit","total_investment","roi"` + "\n")
	for _, record := range records {
		ew.printf(`"%s","%s","%s","%s","%s","%s"`+"\n",
			record.ID,
			record.CreatedAt.UTC().Format(time.RFC3339),
			quote(record.FileName),
			format.Fixed(record.MaxProfit),
			format.Fixed(record.TotalInvestment),
			format.Fixed(record.ROI),
		)
	}
	return ew.err
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// quote escapes embedded double quotes for a quoted CSV field.
func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
