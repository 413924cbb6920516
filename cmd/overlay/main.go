// Command overlay runs one face overlay session: it reads face
// detections from a source, places the selected overlay on every frame
// and hands the placements to the configured sinks. Commands
// ("select <id>", "nudge <dir>") are read from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/faceoverlay/internal/config"
	"github.com/banshee-data/faceoverlay/internal/httputil"
	"github.com/banshee-data/faceoverlay/internal/landmarks"
	"github.com/banshee-data/faceoverlay/internal/monitor"
	"github.com/banshee-data/faceoverlay/internal/monitoring"
	"github.com/banshee-data/faceoverlay/internal/render"
	"github.com/banshee-data/faceoverlay/internal/session"
	"github.com/banshee-data/faceoverlay/internal/store"
	"github.com/banshee-data/faceoverlay/internal/version"
	"tailscale.com/tsweb"
)

var (
	configPath = flag.String("config", "", "Path to an overlay config JSON file (default $OVERLAY_CONFIG)")
	mode       = flag.String("mode", "", "Overlay mode: flat or mesh")
	variant    = flag.String("variant", "", "Initial variant id")
	capture    = flag.String("capture", "", "Capture input: default or mobile-front")
	logLevel   = flag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	source     = flag.String("source", "synthetic", "Detection source: synthetic, jsonl or udp")
	inPath     = flag.String("in", "-", "JSONL replay file for -source jsonl (- for stdin)")
	listenUDP  = flag.String("listen-udp", ":5005", "UDP listen address for -source udp")
	grpcAddr   = flag.String("grpc", "", "gRPC listen address for remote renderers (empty disables)")
	debugAddr  = flag.String("debug", "", "Debug HTTP listen address (empty disables)")
	dbPath     = flag.String("db", "", "SQLite journal path (default $OVERLAY_DB, empty disables)")
	envFile    = flag.String("env", config.DefaultEnv, "dotenv file to load")
	showVer    = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println("overlay", version.String())
		return
	}
	if err := run(); err != nil {
		if errors.Is(err, landmarks.ErrDetectorUnavailable) {
			fmt.Fprintln(os.Stderr, "The face detector is not available. Check that the camera is connected and that this program may use it.")
		}
		fmt.Fprintf(os.Stderr, "overlay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.LoadEnv(*envFile)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	if _, err := monitoring.Configure(monitoring.Options{
		Level:  cfg.GetLogLevel(),
		Dir:    env.LogDir,
		Env:    env.AppEnv,
		Stderr: true,
	}); err != nil {
		return err
	}

	table, err := cfg.LoadTable()
	if err != nil {
		return err
	}
	s, err := session.New(table, cfg.GetVariant())
	if err != nil {
		return err
	}
	if err := s.SetNudgeStep(cfg.GetNudgeStep()); err != nil {
		return err
	}

	detector, closeDetector, err := openDetector(*source, s.Mode())
	if err != nil {
		return err
	}
	defer closeDetector()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	history := monitor.NewPoseHistory(monitor.DefaultHistorySize)
	sinks := render.Fanout{history}

	var publisher *render.Publisher
	if addr := cfg.GetGRPCListen(); addr != "" {
		pcfg := render.DefaultPublisherConfig()
		pcfg.ListenAddr = addr
		publisher = render.NewPublisher(pcfg)
		if err := publisher.Start(); err != nil {
			return err
		}
		defer publisher.Stop()
		sinks = append(sinks, publisher)
	}

	var db *store.DB
	if path := cfg.GetJournalPath(); path != "" {
		db, err = store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.StartSession(ctx, store.SessionRecord{
			ID:             s.ID(),
			Mode:           s.Mode(),
			Capture:        cfg.GetCapture(),
			InitialVariant: s.Active().ID,
			Source:         *source,
			Started:        time.Now(),
		}); err != nil {
			return err
		}
		defer func() {
			if err := db.EndSession(context.Background(), s.ID(), time.Now()); err != nil {
				monitoring.Component("overlay").Warnf("failed to close session record: %v", err)
			}
		}()
		sinks = append(sinks, store.NewJournal(db))
	}

	loop := session.NewLoop(s, detector, sinks, session.Config{
		Params:        cfg.GetPoseParams(),
		Capture:       cfg.GetCapture(),
		FrameInterval: cfg.GetFrameInterval(),
	})
	loop.OnCommand(func(a session.Applied) {
		if a.Err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", a.Command.Kind(), a.Command.Arg(), a.Err)
			return
		}
		if db == nil {
			return
		}
		err := db.RecordCommand(ctx, store.CommandRecord{
			SessionID: s.ID(),
			AfterSeq:  a.AfterSeq,
			Kind:      a.Command.Kind(),
			Arg:       a.Command.Arg(),
			Offset:    a.Offset,
			Applied:   a.At,
		})
		if err != nil {
			monitoring.Component("overlay").Warnf("failed to journal command: %v", err)
		}
	})

	var wg sync.WaitGroup

	// stdin is the replay stream when -in is "-".
	if !(*source == "jsonl" && *inPath == "-") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readCommands(ctx, os.Stdin, loop)
		}()
	}

	if addr := cfg.GetDebugListen(); addr != "" {
		mux := http.NewServeMux()
		if err := attachDebugRoutes(mux, loop, history, publisher, db); err != nil {
			return err
		}
		server := &http.Server{Addr: addr, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, server)
		}()
	}

	monitoring.Component("overlay").Infof("overlay %s", version.String())
	monitoring.Component("overlay").Infof("session %s: mode=%s variant=%s source=%s", s.ID(), s.Mode(), s.Active().ID, *source)
	runErr := loop.Run(ctx)
	stop()

	st := loop.Stats()
	monitoring.Component("overlay").Infof("session %s finished: frames=%d drawn=%d skipped=%d commands=%d", s.ID(), st.Frames, st.Drawn, st.Skipped, st.Commands)

	// The stdin reader may be blocked in a read; do not wait on it.
	if cfg.GetDebugListen() != "" {
		waitTimeout(&wg, 2*time.Second)
	}
	return runErr
}

// loadConfig reads the config file (flag first, then $OVERLAY_CONFIG)
// and applies flag overrides.
func loadConfig(env config.Env) (*config.OverlayConfig, error) {
	cfg := &config.OverlayConfig{}
	path := *configPath
	if path == "" {
		path = env.ConfigPath
	}
	if path != "" {
		var err error
		if cfg, err = config.LoadOverlayConfig(path); err != nil {
			return nil, err
		}
	}
	if *dbPath == "" && env.DBPath != "" {
		*dbPath = env.DBPath
	}
	applyFlags(cfg, flagOverrides{
		Mode:     *mode,
		Variant:  *variant,
		Capture:  *capture,
		LogLevel: *logLevel,
		GRPC:     *grpcAddr,
		Debug:    *debugAddr,
		DB:       *dbPath,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagOverrides are the command-line values that replace config file
// settings when non-empty.
type flagOverrides struct {
	Mode, Variant, Capture, LogLevel string
	GRPC, Debug, DB                  string
}

func applyFlags(cfg *config.OverlayConfig, f flagOverrides) {
	set := func(dst **string, v string) {
		if v != "" {
			v := v
			*dst = &v
		}
	}
	set(&cfg.Mode, f.Mode)
	set(&cfg.Variant, f.Variant)
	set(&cfg.Capture, f.Capture)
	set(&cfg.LogLevel, f.LogLevel)
	set(&cfg.GRPCListen, f.GRPC)
	set(&cfg.DebugListen, f.Debug)
	set(&cfg.JournalPath, f.DB)
}

// readCommands parses one command per line and submits it to the loop.
// It returns at EOF or when ctx is done.
func readCommands(ctx context.Context, r io.Reader, loop *session.Loop) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		cmd, err := session.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := loop.Submit(ctx, cmd); err != nil {
			return
		}
	}
	if err := sc.Err(); err != nil {
		monitoring.Component("overlay").Warnf("command reader stopped: %v", err)
	}
}

func attachDebugRoutes(mux *http.ServeMux, loop *session.Loop, history *monitor.PoseHistory, publisher *render.Publisher, db *store.DB) error {
	debug := tsweb.Debugger(mux)
	debug.Handle("pose", "Pose history chart (?format=json, ?last=N)", history)
	debug.Handle("overlay-stats", "Frame loop and publisher counters (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := struct {
			Loop      session.Stats          `json:"loop"`
			Publisher *render.PublisherStats `json:"publisher,omitempty"`
		}{Loop: loop.Stats()}
		if publisher != nil {
			ps := publisher.Stats()
			stats.Publisher = &ps
		}
		httputil.WriteJSONOK(w, stats)
	}))
	if db != nil {
		return db.AttachAdminRoutes(debug)
	}
	return nil
}

func serveDebug(ctx context.Context, server *http.Server) {
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Component("overlay").Errorf("debug server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Component("overlay").Warnf("debug server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Component("overlay").Warnf("debug server force close error: %v", err)
		}
	}
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
	}
}
