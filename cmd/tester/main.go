package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/regehr/uniform-tree-sampling/driver"
	"github.com/regehr/uniform-tree-sampling/guide"
	"github.com/regehr/uniform-tree-sampling/telemetry"
)

// flipUntilHeads and balancedTreePath are the two worked generators this
// tool exercises: the first returns the index of the first flip that comes
// up heads within treeDepth flips (or treeDepth if none did); the second
// folds treeDepth independent binary choices into one encoded path value.
func flipUntilHeads(treeDepth int) driver.Generator {
	return func(c guide.Chooser) interface{} {
		for i := 0; i < treeDepth; i++ {
			if c.Flip() {
				return i
			}
		}
		return treeDepth
	}
}

func balancedTreePath(treeDepth int) driver.Generator {
	return func(c guide.Chooser) interface{} {
		v := 1
		for i := 0; i < treeDepth; i++ {
			v = 2*v + c.Choose(2)
		}
		return v
	}
}

func buildGuide(kind string, seed int64, debug *telemetry.Logger) (guide.Guide, error) {
	switch kind {
	case "default":
		return guide.NewDefaultSeeded(seed), nil
	case "bfs":
		if debug != nil {
			return guide.NewBFSSeeded(seed, guide.WithDebug(debug)), nil
		}
		return guide.NewBFSSeeded(seed), nil
	case "sampler":
		return guide.NewSamplerSeeded(seed), nil
	default:
		return nil, fmt.Errorf("unknown guide kind %q (want default, bfs, or sampler)", kind)
	}
}

func buildGenerator(name string, treeDepth int) (driver.Generator, error) {
	switch name {
	case "flip":
		return flipUntilHeads(treeDepth), nil
	case "tree":
		return balancedTreePath(treeDepth), nil
	default:
		return nil, fmt.Errorf("unknown generator %q (want flip or tree)", name)
	}
}

func main() {
	var (
		configPath     = flag.String("config", "", "path to a YAML driver config (env CONFIG, when set, takes precedence; with neither set, no config file is read)")
		guideKind      = flag.String("guide", "bfs", "guide kind: default, bfs, sampler")
		generatorName  = flag.String("generator", "flip", "generator: flip (flip-until-heads) or tree (balanced binary tree)")
		treeDepth      = flag.Int("depth", 16, "decision tree depth for the chosen generator")
		seed           = flag.Int64("seed", 1, "PRNG seed")
		maxTraversals  = flag.Int("max-traversals", 0, "stop after this many traversals (0 = unbounded)")
		debug          = flag.Bool("debug", false, "log queue/replay tracing at debug level")
		tracing        = flag.Bool("tracing", false, "emit an OpenTelemetry span per traversal to a Jaeger collector")
		jaegerEndpoint = flag.String("jaeger-endpoint", "http://localhost:14268/api/traces", "Jaeger collector endpoint, used when -tracing is set")
		rateLimit      = flag.Float64("rate-limit", 0, "cap traversals/sec via a token-bucket limiter (0 = unlimited)")
		parallel       = flag.Int("parallel", 1, "run this many independently-seeded guides concurrently via driver.Parallel (seeds offset from -seed)")
		addr           = flag.String("addr", ":8081", "HTTP listen address for /metrics and /health")
	)
	flag.Parse()

	// A YAML config only takes part when the caller opts in, via -config or
	// the CONFIG env var LoadConfig itself also honors; otherwise the flags'
	// own defaults apply exactly as if driver.Config didn't exist. When a
	// config is in play, an explicitly-passed flag still wins over it.
	useConfig := *configPath != "" || os.Getenv("CONFIG") != ""
	cfg := driver.DefaultConfig()
	var err error
	if useConfig {
		cfg, err = driver.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	effGuideKind := *guideKind
	effSeed := *seed
	effMaxTraversals := *maxTraversals
	effDebug := *debug
	effTracing := *tracing
	effJaegerEndpoint := *jaegerEndpoint
	effRateLimit := *rateLimit
	if useConfig {
		if !set["guide"] {
			effGuideKind = cfg.GuideKind
		}
		if !set["seed"] {
			effSeed = cfg.Seed
		}
		if !set["max-traversals"] {
			effMaxTraversals = cfg.MaxTraversals
		}
		if !set["debug"] {
			effDebug = cfg.Debug
		}
		if !set["tracing"] {
			effTracing = cfg.TracingEnabled
		}
		if !set["jaeger-endpoint"] {
			effJaegerEndpoint = cfg.JaegerEndpoint
		}
		if !set["rate-limit"] {
			effRateLimit = cfg.RateLimit
		}
	}

	logCfg := telemetry.LogConfig{Level: "info", AddCaller: true}
	if effDebug {
		logCfg.Level = "debug"
	}
	logger, err := telemetry.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var tracer *telemetry.Tracer
	if effTracing {
		tracer, err = telemetry.NewTracer(telemetry.TracingConfig{
			ServiceName:    "uniform-tree-sampling-tester",
			JaegerEndpoint: effJaegerEndpoint,
		})
		if err != nil {
			log.Fatalf("build tracer: %v", err)
		}
		defer func() {
			if err := tracer.Shutdown(ctx); err != nil {
				log.Printf("tracer shutdown: %v", err)
			}
		}()
	}

	gen, err := buildGenerator(*generatorName, *treeDepth)
	if err != nil {
		log.Fatalf("build generator: %v", err)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	go func() {
		log.Printf("serving /metrics and /health on %s", *addr)
		log.Println(http.ListenAndServe(*addr, mux))
	}()

	var debugSink *telemetry.Logger
	if effDebug {
		debugSink = logger
	}

	if *parallel > 1 {
		jobs := make([]driver.Job, *parallel)
		for i := 0; i < *parallel; i++ {
			g, err := buildGuide(effGuideKind, effSeed+int64(i), debugSink)
			if err != nil {
				log.Fatalf("build guide: %v", err)
			}
			instrumented := telemetry.NewInstrumentedGuide(g, effGuideKind, effSeed+int64(i), logger, metrics, tracer)
			jobs[i] = driver.Job{Guide: instrumented, Gen: gen, MaxTraversals: effMaxTraversals}
		}
		results, err := driver.Parallel(ctx, jobs)
		if err != nil {
			log.Fatalf("parallel run: %v", err)
		}
		total := 0
		for i, r := range results {
			if r.Violation != nil {
				log.Fatalf("job %d generator violated the chooser contract: %v", i, r.Violation)
			}
			total += r.Traversals
		}
		fmt.Printf("guide=%s generator=%s depth=%d parallel=%d traversals=%d\n", effGuideKind, *generatorName, *treeDepth, *parallel, total)
		return
	}

	g, err := buildGuide(effGuideKind, effSeed, debugSink)
	if err != nil {
		log.Fatalf("build guide: %v", err)
	}
	instrumented := telemetry.NewInstrumentedGuide(g, effGuideKind, effSeed, logger, metrics, tracer)

	var out driver.RunResult
	if effRateLimit > 0 {
		limiter := driver.NewLimiter(effRateLimit, 1)
		out, err = driver.RunRateLimited(ctx, instrumented, gen, effMaxTraversals, limiter)
		if err != nil {
			log.Fatalf("rate-limited run aborted: %v", err)
		}
	} else {
		out = driver.RunContext(ctx, instrumented, gen, effMaxTraversals)
	}
	if out.Violation != nil {
		log.Fatalf("generator violated the chooser contract: %v", out.Violation)
	}
	fmt.Printf("guide=%s generator=%s depth=%d traversals=%d\n", effGuideKind, *generatorName, *treeDepth, out.Traversals)
}
