package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachevis/datarecording"
)

var reportCmd = &cobra.Command{
	Use:   "report <sqlite-file>",
	Short: "Summarize a recorded access trace",
	Args:  cobra.ExactArgs(1),
	Run:   runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

type sessionSummary struct {
	accesses       uint64
	hits           uint64
	evictions      uint64
	dirtyWriteback uint64
}

func runReport(_ *cobra.Command, args []string) {
	if _, err := os.Stat(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open database: %s\n", err)
		os.Exit(1)
	}

	reader := datarecording.NewReader(args[0])
	defer reader.Close()

	reader.MapTable(
		datarecording.AccessTableName, datarecording.AccessEntry{})

	rows, err := reader.Query(datarecording.AccessTableName,
		datarecording.QueryParams{OrderBy: "Session, AccessNumber"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read trace: %s\n", err)
		os.Exit(1)
	}

	summaries := make(map[string]*sessionSummary)
	for _, row := range rows {
		entry := row.(datarecording.AccessEntry)

		summary := summaries[entry.Session]
		if summary == nil {
			summary = &sessionSummary{}
			summaries[entry.Session] = summary
		}

		summary.accesses++
		if entry.Hit {
			summary.hits++
		}
		if entry.Eviction {
			summary.evictions++
		}
		if entry.DirtyWriteback {
			summary.dirtyWriteback++
		}
	}

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-22s %10s %10s %10s %10s %10s\n",
		"session", "accesses", "hits", "hit%", "evictions", "writebacks")
	for _, name := range names {
		s := summaries[name]
		hitRatio := 0.0
		if s.accesses > 0 {
			hitRatio = float64(s.hits) / float64(s.accesses) * 100
		}

		fmt.Printf("%-22s %10d %10d %9.2f%% %10d %10d\n",
			name, s.accesses, s.hits, hitRatio,
			s.evictions, s.dirtyWriteback)
	}
}
