package main

import (
	"context"
	"log"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/cache"
	"github.com/quayside/portpulse/server/internal/clients/aisfeed"
	"github.com/quayside/portpulse/server/internal/clients/docstatus"
	"github.com/quayside/portpulse/server/internal/clients/portdir"
	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/lib/prearrival"
	"github.com/quayside/portpulse/server/internal/notify"
	"github.com/quayside/portpulse/server/internal/server"
	"github.com/quayside/portpulse/server/internal/services"
)

func main() {
	appConfig := loadConfig()

	snapshotCache := cache.New()

	// External collaborators
	positionFeed := aisfeed.NewClient(appConfig.Feeds.Positions)
	portDirectory := portdir.NewClient(appConfig.Feeds.PortDir)
	documents := docstatus.NewClient(appConfig.Feeds.Documents)

	geoUtils := geo.NewGeoUtils()
	classifier := congestion.NewClassifier(appConfig.Congestion, geoUtils)
	predictor := prearrival.NewPredictor(appConfig.PreArrival, geoUtils)

	congestionService := services.NewCongestionService(appConfig.Congestion, positionFeed, portDirectory, classifier, snapshotCache)
	preArrivalService := services.NewPreArrivalService(appConfig.PreArrival, positionFeed, portDirectory, predictor, snapshotCache)

	alertStore := buildAlertStore(appConfig.Alerts)
	summarizer := buildSummarizer(appConfig.Enhancer, snapshotCache)
	dispatcher := notify.NewDispatcher(appConfig.Notify, notify.ChannelsFromConfig(appConfig.Notify))

	engine := alerts.NewEngine(
		appConfig.Alerts,
		congestionService,
		preArrivalService,
		documents,
		alertStore,
		dispatcher,
		summarizer,
	)

	log.Printf("PortPulse starting")
	log.Printf("Watched ports: %d", len(appConfig.Sweep.WatchedPorts))

	ctx := context.Background()
	snapshotCache.StartPeriodicCleanup(ctx, appConfig.Congestion.SnapshotTTL)

	sweeper := services.NewSweeper(appConfig.Sweep, engine)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("Failed to start sweep: %v", err)
	}

	apiHandler := server.New(congestionService, preArrivalService, engine, portDirectory)

	prefabServer := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/ports/", apiHandler.ServeHTTP),
	)

	if err := prefabServer.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig layers the prefab.yaml / environment configuration over the
// built-in defaults. Every section is optional; unset sections keep their
// default thresholds.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	sections := map[string]interface{}{
		"congestion":  &appConfig.Congestion,
		"pre_arrival": &appConfig.PreArrival,
		"alerts":      &appConfig.Alerts,
		"notify":      &appConfig.Notify,
		"enhancer":    &appConfig.Enhancer,
		"feeds":       &appConfig.Feeds,
		"sweep":       &appConfig.Sweep,
	}
	for key, target := range sections {
		if err := prefab.Config.Unmarshal(key, target); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", key, err)
		}
	}

	if appConfig.Feeds.Positions.URL == "" {
		log.Fatal("A position feed URL is required (feeds.positions.url)")
	}
	return appConfig
}

// buildAlertStore picks file-backed or in-memory history based on config
func buildAlertStore(cfg config.AlertsConfig) alerts.Store {
	if cfg.HistoryPath == "" {
		log.Printf("Alert history is in-memory only (set alerts.history_path to persist)")
		return alerts.NewMemoryStore(cfg.MaxHistoryPerPort)
	}
	store, err := alerts.NewFileStore(cfg.HistoryPath, cfg.MaxHistoryPerPort, log.Printf)
	if err != nil {
		log.Fatalf("Failed to open alert history at %s: %v", cfg.HistoryPath, err)
	}
	log.Printf("Alert history persisted at %s", cfg.HistoryPath)
	return store
}

// buildSummarizer enables AI summaries when an API key is configured,
// falling back to the plain template otherwise.
func buildSummarizer(cfg config.EnhancerConfig, summaryCache *cache.Cache) alerts.Summarizer {
	if cfg.APIKey == "" {
		log.Printf("Alert summary enhancement disabled (no API key)")
		return alerts.TemplateSummarizer{}
	}
	log.Printf("Alert summary enhancement enabled with content-based caching (model: %s)", cfg.Model)
	return alerts.NewCachedSummarizer(alerts.NewAISummarizer(cfg.APIKey, cfg.Model), summaryCache, cfg.CacheTTL)
}

// homepageHandler serves a minimal HTML landing page at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>portpulse</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            max-width: 720px;
            margin: 40px auto;
            padding: 0 20px;
            color: #222;
        }
        code { background: #f4f4f4; padding: 2px 4px; }
        li { margin: 6px 0; }
    </style>
</head>
<body>
    <h1>portpulse</h1>
    <p>Port operations intelligence API.</p>
    <ul>
        <li><code>GET /api/v1/ports/{code}/congestion</code> - congestion snapshot</li>
        <li><code>GET /api/v1/ports/{code}/congestion.kml</code> - snapshot as KML</li>
        <li><code>GET /api/v1/ports/{code}/prearrivals?window_hours=24</code> - inbound vessel forecast</li>
        <li><code>GET /api/v1/ports/{code}/alerts</code> - alert history</li>
        <li><code>POST /api/v1/ports/{code}/alerts</code> - run an evaluation pass</li>
        <li><code>POST /api/v1/ports/{code}/alerts/{id}/ack</code> - acknowledge an alert</li>
    </ul>
</body>
</html>`

	if _, err := w.Write([]byte(html)); err != nil {
		log.Printf("Failed to write homepage: %v", err)
	}
}
