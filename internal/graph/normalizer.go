package graph

import (
	"regexp"
	"strconv"
	"strings"
)

var samplePattern = regexp.MustCompile(`_(sample(\d+))_`)

// CSVFileName is "<batch>_<sample>_<kind>.csv" with spaces replaced by "_".
func CSVFileName(batch, sample string, kind TableKind) string {
	name := batch + "_" + sample + "_" + string(kind) + ".csv"
	return strings.ReplaceAll(name, " ", "_")
}

// Discoverable reports whether a sample CSV file name is picked up by
// DiscoverSampleFiles.
func Discoverable(name string) bool {
	return samplePattern.MatchString(name)
}

// sampleNumber orders "sample10" after "sample9".
func sampleNumber(sample string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(sample, "sample"))
	if err != nil {
		return -1
	}
	return n
}
