// Command pipeline runs the whole tracker once from the command line:
// add a company, discover its filings in a date range, extract facts from
// each, and print the resulting reserve life series.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"reservelife/pkg/core/agent"
	"reservelife/pkg/core/edgar"
	"reservelife/pkg/core/extract"
	"reservelife/pkg/core/identity"
	"reservelife/pkg/core/pipeline"
	"reservelife/pkg/core/store"
)

func main() {
	ticker := flag.String("ticker", "", "company ticker symbol (required)")
	start := flag.String("start", "", "start date YYYY-MM-DD (default: 5 years ago)")
	end := flag.String("end", "", "end date YYYY-MM-DD (default: today)")
	forms := flag.String("forms", "10-K,10-Q", "comma-separated filing types")
	dataFile := flag.String("data", "company_data.json", "path to the company store document")
	flag.Parse()

	if *ticker == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, assuming environment variables are set")
	}

	now := time.Now()
	if *end == "" {
		*end = now.Format("2006-01-02")
	}
	if *start == "" {
		*start = now.AddDate(-5, 0, 0).Format("2006-01-02")
	}

	userAgent := os.Getenv("SEC_USER_AGENT")
	if userAgent == "" {
		userAgent = edgar.DefaultUserAgent
	}

	agentMgr := agent.NewManager(agent.Config{})
	provider := agentMgr.FirstAvailable()
	if provider == nil {
		log.Println("warning: no LLM credential configured, extraction will be unavailable")
	}

	st := store.NewStore(*dataFile)
	if err := st.Load(); err != nil {
		log.Fatalf("could not load company store: %v", err)
	}

	orchestrator := pipeline.New(
		edgar.NewClient(userAgent),
		extract.New(provider, userAgent),
		identity.NewClient(userAgent),
		st,
		nil,
	)

	ctx := context.Background()

	msg, err := orchestrator.AddCompany(ctx, *ticker)
	if err != nil {
		log.Fatalf("add company failed: %v", err)
	}
	fmt.Println(msg)

	msg, err = orchestrator.UpdateFilings(ctx, *start, *end, strings.Split(*forms, ","))
	if err != nil {
		log.Fatalf("update filings failed: %v", err)
	}
	fmt.Println(msg)

	msg, err = orchestrator.BulkExtract(ctx)
	if err != nil {
		log.Fatalf("bulk extract failed: %v", err)
	}
	fmt.Println(msg)

	normalized := strings.ToUpper(strings.TrimSpace(*ticker))
	series := orchestrator.ReserveLifeSeries([]string{normalized})
	points := series[normalized]
	if len(points) == 0 {
		fmt.Println("no filings with both facts extracted yet")
		return
	}

	fmt.Printf("\n%-12s %-8s %18s %18s %14s\n", "period end", "form", "reserves (bbl)", "production (bbl/y)", "reserve life")
	for _, p := range points {
		fmt.Printf("%-12s %-8s %18.0f %18.0f %13.1fy\n",
			p.PeriodEnd, p.Form, p.ProvedReserves, p.AnnualProduction, p.ReserveLife)
	}
}
