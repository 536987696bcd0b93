// Package main implements the tryllctl CLI for manual operations against
// a trylld REST server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the trylld HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tryllctl",
	Short: "CLI for trylld server operations",
	Long: `tryllctl is a command-line interface for inspecting a running trylld server.
It provides commands for listing projects, viewing stats and history, and
exporting datasets.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8765", "trylld server URL")
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
}

// projectsCmd lists all projects on the server
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects on the server",
	Long: `List every project the server knows about.

Examples:
  # List projects
  tryllctl projects

  # Use a different server
  tryllctl projects --server http://build-host:8765`,
	RunE: runProjects,
}

// statsCmd shows aggregate statistics for one project
var statsCmd = &cobra.Command{
	Use:   "stats <project>",
	Short: "Show statistics for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var exportCategory string

// exportCmd prints a project's flattened export records as JSON
var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project as flat JSON records",
	Long: `Export a project's chunks as a flat JSON array, metadata merged into
each record.

Examples:
  # Export a whole project
  tryllctl export norse_myths > norse_myths.json

  # Export a single category
  tryllctl export norse_myths --category Creatures`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// historyCmd lists a project's commit history
var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "Show a project's commit history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check trylld server health",
	RunE:  runHealth,
}

func init() {
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "export only this category")
}

// ProjectsResponse matches internal/httpapi listResponse
type ProjectsResponse struct {
	Projects []string `json:"projects"`
}

// StatsResponse matches store.ProjectStats
type StatsResponse struct {
	Project      string         `json:"project"`
	Categories   int            `json:"categories"`
	Chunks       int            `json:"chunks"`
	PerCategory  []CategorySize `json:"per_category"`
	AvgTextLen   int            `json:"avg_text_len"`
	LongestText  int            `json:"longest_text"`
	ShortestText int            `json:"shortest_text"`
}

// CategorySize matches store.CategoryCount
type CategorySize struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// HistoryEntry matches the stripped store.Commit
type HistoryEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Action    string `json:"action"`
	Summary   string `json:"summary"`
}

// HealthResponse matches internal/httpapi handleHealth
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse matches internal/httpapi ErrorBody
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func runProjects(cmd *cobra.Command, args []string) error {
	var resp ProjectsResponse
	if err := getJSON("/api/v1/projects", &resp); err != nil {
		return err
	}
	if len(resp.Projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, name := range resp.Projects {
		fmt.Println(name)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	var stats StatsResponse
	if err := getJSON("/api/v1/projects/"+url.PathEscape(args[0])+"/stats", &stats); err != nil {
		return err
	}
	fmt.Printf("Project:    %s\n", stats.Project)
	fmt.Printf("Categories: %d\n", stats.Categories)
	fmt.Printf("Chunks:     %d\n", stats.Chunks)
	fmt.Printf("Text size:  avg %d, min %d, max %d\n",
		stats.AvgTextLen, stats.ShortestText, stats.LongestText)
	for _, cat := range stats.PerCategory {
		fmt.Printf("  %-30s %d\n", cat.Name, cat.Chunks)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	path := "/api/v1/projects/" + url.PathEscape(args[0]) + "/export"
	if exportCategory != "" {
		path = "/api/v1/projects/" + url.PathEscape(args[0]) +
			"/categories/" + url.PathEscape(exportCategory) + "/export"
	}
	var records []map[string]any
	if err := getJSON(path, &records); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runHistory(cmd *cobra.Command, args []string) error {
	var commits []HistoryEntry
	if err := getJSON("/api/v1/projects/"+url.PathEscape(args[0])+"/history", &commits); err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Println("No history.")
		return nil
	}
	for _, c := range commits {
		fmt.Printf("%s  %-19s  %-8s  %s\n", c.ID, c.Timestamp, c.Source, c.Summary)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	var health HealthResponse
	if err := getJSON("/healthz", &health); err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	fmt.Printf("Server is %s\n", health.Status)
	return nil
}

// getJSON fetches path from the configured server and decodes the JSON
// response into out. Error bodies are surfaced with their wire code.
func getJSON(path string, out any) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("server error (%s): %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
