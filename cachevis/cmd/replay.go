package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachevis/cache"
	"github.com/sarchlab/cachevis/datarecording"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace-file>",
	Short: "Replay an address trace through one simulated cache",
	Long: `Replay runs a trace file through a single cache and prints the ` +
		`outcome of every access plus the final statistics. Each line of ` +
		`the trace holds an operation (r/read or w/write) and an address ` +
		`in decimal or 0x-prefixed hex. Blank lines and lines starting ` +
		`with # are skipped.`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	replayCmd.Flags().Int("cache-size", 16, "cache capacity in bytes")
	replayCmd.Flags().Int("block-size", 4, "block size in bytes")
	replayCmd.Flags().String("placement", "direct-mapped",
		"placement policy: direct-mapped or fully-associative")
	replayCmd.Flags().String("write-policy", "write-back",
		"write policy: write-through or write-back")
	replayCmd.Flags().String("record", "",
		"record the access log to this SQLite file")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	engine, err := engineFromFlags(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		atexit.Exit(1)
	}

	var logger *datarecording.AccessLogger
	if recordPath, _ := cmd.Flags().GetString("record"); recordPath != "" {
		logger = datarecording.NewAccessLogger(
			"replay", datarecording.New(recordPath))
	}

	file, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open trace: %s\n", err)
		atexit.Exit(1)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		op, address, skip, err := parseTraceLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", args[0], lineNo, err)
			atexit.Exit(1)
		}
		if skip {
			continue
		}

		ev, err := engine.Access(address, op)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", args[0], lineNo, err)
			atexit.Exit(1)
		}

		if logger != nil {
			logger.Record(ev)
		}

		printEvent(ev)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read trace: %s\n", err)
		atexit.Exit(1)
	}

	printStats(engine.State().Stats)
	atexit.Exit(0)
}

func engineFromFlags(cmd *cobra.Command) (*cache.Engine, error) {
	placementName, _ := cmd.Flags().GetString("placement")
	placement, err := cache.ParsePlacement(placementName)
	if err != nil {
		return nil, err
	}

	writePolicyName, _ := cmd.Flags().GetString("write-policy")
	writePolicy, err := cache.ParseWritePolicy(writePolicyName)
	if err != nil {
		return nil, err
	}

	cacheSize, _ := cmd.Flags().GetInt("cache-size")
	blockSize, _ := cmd.Flags().GetInt("block-size")

	return cache.New(cache.Config{
		CacheSize:   cacheSize,
		BlockSize:   blockSize,
		Placement:   placement,
		WritePolicy: writePolicy,
	})
}

func parseTraceLine(line string) (
	op cache.Operation,
	address int64,
	skip bool,
	err error,
) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, 0, true, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false,
			fmt.Errorf("expected `<op> <address>`, got %q", line)
	}

	switch strings.ToLower(fields[0]) {
	case "r", "read":
		op = cache.Read
	case "w", "write":
		op = cache.Write
	default:
		return 0, 0, false, fmt.Errorf("unknown operation %q", fields[0])
	}

	address, err = strconv.ParseInt(fields[1], 0, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("bad address %q", fields[1])
	}

	return op, address, false, nil
}

func printEvent(ev *cache.AccessEvent) {
	outcome := "miss"
	if ev.Hit {
		outcome = "hit"
	}

	extras := ""
	if ev.Eviction {
		extras += ", eviction"
	}
	if ev.DirtyWriteback {
		extras += ", dirty writeback"
	}

	fmt.Printf("#%d %-5s 0x%08x -> %s (line %d%s)\n",
		ev.AccessNumber, ev.Operation, ev.Address, outcome, ev.LineID, extras)
}

func printStats(s cache.StatsSnapshot) {
	fmt.Printf("\nAccesses:       %d\n", s.TotalAccesses)
	fmt.Printf("Hits:           %d\n", s.Hits)
	fmt.Printf("Misses:         %d\n", s.Misses)
	fmt.Printf("Hit ratio:      %.2f%%\n", s.HitRatio*100)
	fmt.Printf("Memory reads:   %d\n", s.MemoryReads)
	fmt.Printf("Memory writes:  %d\n", s.MemoryWrites)
	fmt.Printf("Memory traffic: %d\n", s.TotalMemoryTraffic)
}
