package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachevis/datarecording"
	"github.com/sarchlab/cachevis/monitoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cache simulation sessions over HTTP",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0,
		"port to listen on (0 picks a random port)")
	serveCmd.Flags().String("record", "",
		"record all accesses to this SQLite file")
	serveCmd.Flags().Bool("open", false,
		"open the server URL in a browser")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	// A .env file can provide CACHEVIS_PORT and CACHEVIS_RECORD; flags win.
	_ = godotenv.Load()

	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("port") {
		if env := os.Getenv("CACHEVIS_PORT"); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid CACHEVIS_PORT %q\n", env)
				os.Exit(1)
			}
			port = p
		}
	}

	recordPath, _ := cmd.Flags().GetString("record")
	if !cmd.Flags().Changed("record") {
		recordPath = os.Getenv("CACHEVIS_RECORD")
	}

	server := monitoring.NewServer()
	if port > 0 {
		server.WithPortNumber(port)
	}

	if recordPath != "" {
		server.WithRecorder(datarecording.New(recordPath))
	}

	actualPort := server.StartServer()

	if open, _ := cmd.Flags().GetBool("open"); open {
		url := fmt.Sprintf("http://localhost:%d/", actualPort)
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	select {}
}
