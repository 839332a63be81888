package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	persistlog "github.com/poizan42/mineserver/internal/persistence/log"
	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/hooks"
	"github.com/poizan42/mineserver/internal/sim/tuning"
	"github.com/poizan42/mineserver/internal/sim/world"
	"github.com/poizan42/mineserver/internal/sim/world/feature/falling"
	"github.com/poizan42/mineserver/internal/sim/world/feature/support"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
	"github.com/poizan42/mineserver/internal/transport/tcp"
	"github.com/poizan42/mineserver/internal/transport/ws"
)

func main() {
	var (
		worldID    = flag.String("world", "world", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		listen     = flag.String("listen", "", "game listen address (overrides tuning.listen)")
		httpAddr   = flag.String("http", "", "http listen address (overrides tuning.http_addr)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (audits, sessions, snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := loadCatalogs(*configDir, logger)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning: %s not found, using defaults", tp)
		tune = tuning.Defaults()
	}
	if *listen != "" {
		tune.Listen = *listen
	}
	if *httpAddr != "" {
		tune.HTTPAddr = *httpAddr
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)

	idx, err := openIndex(worldDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
	}

	logOpts := persistlog.LoggerOptions{RotateLayout: persistlog.RotateHourly}
	if idx != nil {
		logOpts.OnClose = idx.RecordLogFile
	}
	auditLog := persistlog.NewAuditLogger(worldDir, logOpts)
	defer auditLog.Close()
	sessionLog := persistlog.NewSessionLogger(worldDir, logOpts)
	defer sessionLog.Close()

	gen := store.WorldGen{
		Height:    tune.World.Height,
		BoundaryR: tune.World.BoundaryR,
		Layers:    tune.World.Layers,
	}
	chunks := store.NewChunkStore(gen)
	spawn := tune.World.Spawn
	var seq uint64
	var players []snapshot.PlayerV1

	sp := *snapPath
	if sp == "" && *loadLatest {
		sp = latestSnapshot(worldDir)
	}
	if sp != "" {
		snap, err := snapshot.ReadSnapshot(sp)
		if err != nil {
			logger.Fatalf("load snapshot: %v", err)
		}
		if snap.CatalogDigest != "" && snap.CatalogDigest != cats.Digest {
			logger.Printf("warning: snapshot catalog digest %s differs from loaded catalogs %s", snap.CatalogDigest, cats.Digest)
		}
		chunks, err = store.ImportChunks(store.WorldGen{
			Height:    snap.Height,
			BoundaryR: snap.BoundaryR,
			Layers:    snap.Layers,
		}, snap.Chunks)
		if err != nil {
			logger.Fatalf("import snapshot chunks: %v", err)
		}
		spawn = snap.Spawn
		tune.World.Spawn = spawn
		seq = snap.Header.Seq
		players = snap.Players
		logger.Printf("loaded snapshot %s (seq=%d chunks=%d players=%d)", sp, seq, len(snap.Chunks), len(snap.Players))
	}

	hk := hooks.New()
	hub := session.NewHub(tune, cats, hk, logger)
	hub.ImportPlayers(players)
	hub.SetEventLogger(multiSessionLogger{a: sessionLog, b: idx})

	handlers := world.NewHandlers()
	handlers.Register(falling.New(cats))
	handlers.Register(support.New(cats))

	w, err := world.New(world.Config{
		Store:       chunks,
		Broadcaster: hub,
		Inventory:   hub,
		Catalogs:    cats,
		Hooks:       hk,
		Handlers:    handlers,
		Audit:       multiAuditLogger{a: auditLog, b: idx},
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	hub.SetWorld(w)

	snaps := &snapshotter{
		worldDir: worldDir,
		worldID:  *worldID,
		world:    w,
		store:    chunks,
		hub:      hub,
		cats:     cats,
		spawn:    spawn,
		idx:      idx,
		seq:      seq,
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	// Transports outlive ctx so the hub can kick everyone before the
	// connections are torn down.
	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()

	var wg sync.WaitGroup

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	if every := tune.SnapshotInterval(); every > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					path, err := snaps.Save()
					if err != nil {
						logger.Printf("snapshot: %v", err)
						continue
					}
					logger.Printf("snapshot written: %s", path)
				}
			}
		}()
	}

	gameSrv := tcp.NewServer(hub, tcp.Config{
		IdleTimeout: tune.IdleTimeout(),
		IdleReason:  tune.Messages.Idle,
	}, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gameSrv.ListenAndServe(serveCtx, tune.Listen); err != nil {
			logger.Printf("game listener: %v", err)
			stop()
		}
	}()

	wsSrv := ws.NewServer(hub, ws.Config{
		IdleTimeout: tune.IdleTimeout(),
		IdleReason:  tune.Messages.Idle,
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, hub, w, chunks, idx)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"hub":   hub.Stats(),
			"world": w.Stats(),
			"index": idx.Stats(),
		})
	})
	mux.HandleFunc("/admin/v1/audit", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if idx == nil {
			http.Error(rw, "index disabled", http.StatusServiceUnavailable)
			return
		}
		q := r.URL.Query()
		var coords [4]int
		for i, k := range []string{"dim", "x", "y", "z"} {
			v := q.Get(k)
			if v == "" && k == "dim" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(rw, "bad "+k, http.StatusBadRequest)
				return
			}
			coords[i] = n
		}
		limit := envInt("MS_AUDIT_LIMIT", 100)
		entries, err := idx.AuditsAt(r.Context(), world.Pos{
			Dim: int8(coords[0]), X: coords[1], Y: coords[2], Z: coords[3],
		}, limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(entries)
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		path, err := snaps.Save()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "path": path})
	})
	if envBool("MS_ENABLE_PPROF", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	httpSrv := &http.Server{
		Addr:              tune.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-serveCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Printf("game listening on %s, http on %s (protocol %d)", tune.Listen, tune.HTTPAddr, tune.ProtocolVersion)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("http: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")
	<-hubDone
	// Give writers a moment to flush the shutdown kick.
	time.Sleep(200 * time.Millisecond)
	cancelServe()
	wg.Wait()

	if path, err := snaps.Save(); err != nil {
		logger.Printf("final snapshot: %v", err)
	} else {
		logger.Printf("final snapshot written: %s", path)
	}
}

func loadCatalogs(configDir string, logger *log.Logger) (*catalogs.Catalogs, error) {
	if configDir == "" {
		return catalogs.Default(), nil
	}
	if _, err := os.Stat(filepath.Join(configDir, "blocks.json")); errors.Is(err, os.ErrNotExist) {
		logger.Printf("catalogs: %s/blocks.json not found, using built-in catalog", configDir)
		return catalogs.Default(), nil
	}
	return catalogs.Load(configDir)
}

func signalContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
