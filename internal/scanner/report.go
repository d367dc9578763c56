// Copyright 2024 Gapwatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scanner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/gapwatch/gapwatch/internal/util/lazyerrors"
)

// maxRunsShown limits the number of runs in the text report; JSON always carries all of them.
const maxRunsShown = 16

// RenderText writes a human-readable report.
func (res *ScanResult) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "TABLE\tCOLUMN\tROWS\tRANGE\tMISSING\tGAPS")

	for _, r := range res.Reports {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\terror: %s\n", r.Table, r.Column, r.Error)
			continue
		}

		rng := "-"
		if r.Distinct > 0 {
			rng = fmt.Sprintf("%d..%d", r.Lo, r.Hi)
		}

		fmt.Fprintf(
			tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Table, r.Column, humanize.Comma(int64(r.Rows)), rng,
			humanize.Comma(int64(len(r.Gaps))), formatRuns(r),
		)
	}

	if err := tw.Flush(); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// formatRuns returns the report's gap runs in `first..last` notation.
func formatRuns(r TableReport) string {
	if len(r.Runs) == 0 {
		return "none"
	}

	runs := r.Runs
	truncated := false

	if len(runs) > maxRunsShown {
		runs = runs[:maxRunsShown]
		truncated = true
	}

	parts := make([]string, len(runs))
	for i, run := range runs {
		parts[i] = run.String()
	}

	res := strings.Join(parts, ", ")
	if truncated {
		res += fmt.Sprintf(", ... (%s more)", humanize.Comma(int64(len(r.Runs)-maxRunsShown)))
	}

	return res
}

// RenderJSON writes the complete report as indented JSON.
func (res *ScanResult) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(res); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}
