// Package report presents rolling mean results: as text, as a line chart and
// as a spreadsheet.
package report

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/livepeer/trip-analyzer/analysis"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMean renders a mean with the shortest exact representation, or "nan"
// for an empty window.
func FormatMean(mean float64) string {
	if math.IsNaN(mean) {
		return "nan"
	}
	return strconv.FormatFloat(mean, 'g', -1, 64)
}

// WriteSeries prints the means as a bracketed list, e.g. [4.165, nan, 5.4].
func WriteSeries(w io.Writer, means []float64) error {
	strs := make([]string, len(means))
	for i, m := range means {
		strs[i] = FormatMean(m)
	}
	_, err := io.WriteString(w, "["+strings.Join(strs, ", ")+"]\n")
	return err
}

func WriteSummary(w io.Writer, res *analysis.Result) error {
	printer := message.NewPrinter(language.English)
	_, err := printer.Fprintf(w, "run %s: %d months, %d trips in %s, %d windows (%d empty) with %s strategy\n",
		res.RunID, len(res.Months), res.Records, res.Interval, len(res.Means), res.EmptyWindows(), res.Strategy)
	return err
}
