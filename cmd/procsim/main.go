// Package main provides the demo entry point for the order process
// orchestration simulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procsim"
	"procsim/clock"
	"procsim/event"
	"procsim/export"
	promMetrics "procsim/metrics/prometheus"
)

func main() {
	var (
		scenario    = flag.String("scenario", "all", "scenario to run: happy, reject, nostock or all")
		speed       = flag.Int("speed", clock.DefaultLevel, "speed control level in [1,200]")
		metricsAddr = flag.String("metrics-addr", "", "optional address to serve Prometheus metrics on (e.g. :9090)")
	)
	flag.Parse()

	engine := procsim.NewEngine(
		procsim.WithEngineMetrics(promMetrics.New(promMetrics.DefaultConfig())),
	)

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
		log.Printf("serving metrics on %s/metrics", *metricsAddr)
	}

	factor := engine.SetSpeed(*speed)
	log.Printf("speed: %s", clock.FormatFactor(factor))

	engine.Ledger().Subscribe(func(e event.Event) {
		log.Print(export.FormatEvent(e))
	})

	scenarios, err := selectScenarios(*scenario)
	if err != nil {
		log.Fatal(err)
	}

	for _, s := range scenarios {
		log.Printf("=== scenario: %s ===", s)
		runScenario(engine, s)
	}
}

func selectScenarios(name string) ([]procsim.Scenario, error) {
	switch name {
	case "all":
		return []procsim.Scenario{procsim.ScenarioHappy, procsim.ScenarioReject, procsim.ScenarioNoStock}, nil
	case "happy":
		return []procsim.Scenario{procsim.ScenarioHappy}, nil
	case "reject":
		return []procsim.Scenario{procsim.ScenarioReject}, nil
	case "nostock":
		return []procsim.Scenario{procsim.ScenarioNoStock}, nil
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
}

func runScenario(engine *procsim.Engine, s procsim.Scenario) {
	result, err := engine.Run(context.Background(), s)
	if err != nil {
		log.Printf("run failed: %v", err)
		return
	}

	log.Printf("status: %s", result.Status.DisplayName())
	if result.Reply != nil {
		log.Printf("reply: %s (%s)", result.Reply.Status, result.Reply.Message)
	}
	log.Printf("kpi: %s", export.FormatKPI(engine.KPI()))

	varsJSON, err := export.VariablesJSON(engine.Variables())
	if err != nil {
		log.Printf("variables export failed: %v", err)
		return
	}
	log.Printf("variables:\n%s", varsJSON)
}
