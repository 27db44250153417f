// Package main provides the entry point for the higher-level cognitive
// services process. It serves the same orchestrator/planner/consensus core
// over two equivalent ingress surfaces: a gin HTTP/JSON API and an MCP
// stdio tool surface, so it can run standalone behind a load balancer or be
// spawned as a child process by an MCP-speaking client.
//
// Environment variables are read with the HLCS_ prefix (see internal/config).
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"unified-thinking/internal/config"
	"unified-thinking/internal/consensus"
	"unified-thinking/internal/gateway"
	"unified-thinking/internal/localreasoner"
	"unified-thinking/internal/memstore"
	"unified-thinking/internal/metacognition"
	"unified-thinking/internal/orchestrator"
	"unified-thinking/internal/planner"
	"unified-thinking/internal/toolserver"
	"unified-thinking/internal/types"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting in debug mode...")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Loaded configuration")

	memory, err := memstore.NewStore(cfg.Memory)
	if err != nil {
		log.Fatalf("Failed to initialize episode store: %v", err)
	}
	log.Printf("Initialized episode store (backend=%s)", cfg.Memory.Backend)

	tools := toolserver.NewClient(
		cfg.Backends.ToolServer.URL,
		time.Duration(cfg.Backends.ToolServer.TimeoutMS)*time.Millisecond,
		cfg.Backends.ToolServer.Retries,
	)
	log.Printf("Initialized tool server client (url=%s)", cfg.Backends.ToolServer.URL)

	var local orchestrator.LocalProcessor
	if cfg.Backends.LocalReasoner.Enabled {
		local = localreasoner.NewClient(
			cfg.Backends.LocalReasoner.URL,
			time.Duration(cfg.Backends.LocalReasoner.TimeoutMS)*time.Millisecond,
		)
		log.Printf("Initialized local reasoner client (url=%s)", cfg.Backends.LocalReasoner.URL)
	} else {
		log.Println("Local reasoner disabled")
	}

	meta := metacognition.NewMetaCognition()
	log.Println("Initialized meta-cognitive router")

	cengine := consensus.NewConsensusEngine(cfg.ConsensusDefaults)
	log.Println("Initialized consensus engine")

	plan := planner.NewStrategicPlanner()
	log.Println("Initialized strategic planner")

	backends := []metacognition.Backend{
		{Name: "tool_server", Capabilities: capabilityTags(cfg.Backends.ToolServer.Capabilities)},
	}

	orch := orchestrator.NewOrchestrator(meta, tools, local, cfg.Backends.LocalReasoner.Enabled, memory, cengine, backends, orchestrator.Options{
		QualityThreshold:    cfg.QualityThreshold,
		MaxIterations:       cfg.MaxIterations,
		ComplexityThreshold: cfg.ComplexityThreshold,
		ConsensusDeadline:   time.Duration(cfg.ConsensusDefaults.DeadlineMS) * time.Millisecond,
		ConsensusType:       types.ConsensusType(cfg.ConsensusDefaults.Type),
		Capabilities:        cfg.Backends.ToolServer.Capabilities,
	})
	log.Println("Initialized orchestrator")

	gw := gateway.NewGateway(orch, plan, cengine, tools, local, cfg.Backends.LocalReasoner.Enabled, gateway.Options{
		RequestTimeout:        time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		Capabilities:          cfg.Backends.ToolServer.Capabilities,
	})
	log.Println("Initialized gateway")

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	gw.RegisterRoutes(router)
	log.Println("Registered HTTP routes")

	go func() {
		log.Printf("Starting HTTP surface on %s", cfg.ListenAddress)
		if err := router.Run(cfg.ListenAddress); err != nil {
			log.Printf("HTTP surface stopped: %v", err)
		}
	}()

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "higher-level-cognitive-services",
		Version: "1.0.0",
	}, nil)
	gw.RegisterTools(mcpServer)
	log.Println("Registered MCP tools: query, planning.create_goal, planning.get_goal, planning.create_plan, planning.execute_plan, sci.register_participant, sci.open_decision, sci.cast_vote, sci.tally")

	transport := &mcp.StdioTransport{}
	log.Println("Starting MCP stdio surface...")
	if err := mcpServer.Run(context.Background(), transport); err != nil {
		log.Fatalf("MCP surface error: %v", err)
	}
}

func capabilityTags(capabilities map[string]string) []string {
	tags := make([]string, 0, len(capabilities))
	for tag := range capabilities {
		tags = append(tags, tag)
	}
	return tags
}
