// Package agentrelayctl is the gateway's admin/stats CLI: a thin HTTP
// client over GET /stats rendered as a colorized table.
package agentrelayctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// NewDefaultCommand builds the `agentrelayctl` root command.
func NewDefaultCommand() *cobra.Command {
	var serverAddr string

	cmd := &cobra.Command{
		Use:   "agentrelayctl",
		Short: "Inspect a running agentrelay gateway",
		Long: heredoc.Doc(`
			agentrelayctl is a small operational client for the agentrelay
			gateway. It hits the gateway's HTTP surface and renders the
			result as a table on the terminal.
		`),
	}
	cmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "Gateway base URL")

	cmd.AddCommand(newStatsCommand(&serverAddr))
	return cmd
}

func newStatsCommand(serverAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pool and cache occupancy",
		Example: heredoc.Doc(`
			# Show current pool/cache occupancy
			agentrelayctl stats --server=http://localhost:8080
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(*serverAddr)
		},
	}
}

type statsResponse struct {
	InflightSessions int `json:"inflight_sessions"`
	Pool             struct {
		Idle      int `json:"idle"`
		Active    int `json:"active"`
		MaxIdle   int `json:"max_idle"`
		MaxActive int `json:"max_active"`
	} `json:"pool"`
	Cache struct {
		Entries    int `json:"entries"`
		MaxEntries int `json:"max_entries"`
	} `json:"cache"`
}

func runStats(serverAddr string) error {
	serverAddr = strings.TrimRight(serverAddr, "/")

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Get(serverAddr + "/stats")
	if err != nil {
		return fmt.Errorf("request stats: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var stats statsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("unmarshal stats response: %w", err)
	}

	table := uitable.New()
	table.AddRow(color.New(color.Bold).Sprint("METRIC"), color.New(color.Bold).Sprint("VALUE"))
	table.AddRow("inflight sessions", stats.InflightSessions)
	table.AddRow("pool idle", fmt.Sprintf("%d/%d", stats.Pool.Idle, stats.Pool.MaxIdle))
	table.AddRow("pool active", fmt.Sprintf("%d/%d", stats.Pool.Active, stats.Pool.MaxActive))
	table.AddRow("cache entries", fmt.Sprintf("%d/%d", stats.Cache.Entries, stats.Cache.MaxEntries))

	fmt.Println(color.GreenString("agentrelay gateway @ %s", serverAddr))
	fmt.Println(table)
	return nil
}
