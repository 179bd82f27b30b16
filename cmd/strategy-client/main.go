// Command strategy-client starts one analysis run against the worker and
// waits for the terminal state.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/config"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/workflows"
)

func main() {
	company := flag.String("company", "", "company name to analyze (required)")
	strategy := flag.String("strategy", "Cost Leadership", "strategic lens: Cost Leadership, Differentiation, Focus/Niche")
	ticker := flag.String("ticker", "", "ticker symbol (derived from company when empty)")
	noCache := flag.Bool("no-cache", false, "bypass the research cache")
	flag.Parse()

	if *company == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("connect to temporal: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	runID := "analysis-" + uuid.New().String()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        runID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.AnalysisWorkflow, workflows.AnalysisInput{
		CompanyName:   *company,
		StrategyFocus: *strategy,
		Ticker:        *ticker,
		UseCache:      !*noCache,
	})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	fmt.Fprintf(os.Stderr, "started run %s\n", runID)

	var state workflows.AnalysisState
	if err := run.Get(ctx, &state); err != nil {
		log.Fatalf("run failed: %v", err)
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}
