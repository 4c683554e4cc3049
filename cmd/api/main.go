package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"reservelife/pkg/api/tracker"
	"reservelife/pkg/core/agent"
	"reservelife/pkg/core/edgar"
	"reservelife/pkg/core/extract"
	"reservelife/pkg/core/identity"
	"reservelife/pkg/core/pipeline"
	"reservelife/pkg/core/store"
)

func main() {
	godotenv.Load()

	userAgent := getEnv("SEC_USER_AGENT", edgar.DefaultUserAgent)
	dataFile := getEnv("DATA_FILE", "company_data.json")

	// LLM provider selection, optionally overridden by config/models.yaml.
	var agentCfg agent.Config
	if configData, err := os.ReadFile("config/models.yaml"); err == nil {
		if err := yaml.Unmarshal(configData, &agentCfg); err != nil {
			log.Printf("[WARNING] could not parse config/models.yaml: %v", err)
		}
	}
	agentMgr := agent.NewManager(agentCfg)
	provider := agentMgr.GetProvider("extraction")
	if provider == nil || !provider.Available() {
		log.Println("[WARNING] no LLM credential configured, extraction will be unavailable")
	}

	st := store.NewStore(dataFile)
	if err := st.Load(); err != nil {
		log.Fatalf("[FATAL] could not load company store: %v", err)
	}
	log.Printf("[Store] loaded %d companies from %s", len(st.Tickers()), dataFile)

	// Optional Postgres snapshots.
	var snapshots pipeline.Snapshotter
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			log.Printf("[WARNING] postgres snapshots disabled: %v", err)
		} else {
			defer store.Close()
			snapshots = store.NewCompanyRepo()
		}
	}

	orchestrator := pipeline.New(
		edgar.NewClient(userAgent),
		extract.New(provider, userAgent),
		identity.NewClient(userAgent),
		st,
		snapshots,
	)

	mux := http.NewServeMux()
	tracker.NewHandler(orchestrator).Register(mux)

	port := getEnv("PORT", "8080")
	fmt.Printf("Reserve life tracker API starting on :%s...\n", port)
	fmt.Println("  - GET  /api/companies")
	fmt.Println("  - POST /api/companies/add")
	fmt.Println("  - POST /api/companies/remove")
	fmt.Println("  - POST /api/filings/update")
	fmt.Println("  - POST /api/extract/bulk")
	fmt.Println("  - POST /api/extract/single")
	fmt.Println("  - GET  /api/extract/log")
	fmt.Println("  - GET  /api/reservelife")

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("[FATAL] server failed to start: %v", err)
	}
}

func getEnv(key, def string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return def
}
