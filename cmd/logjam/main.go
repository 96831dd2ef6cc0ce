package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/mr-karan/logjam/internal/capture"
	"github.com/mr-karan/logjam/pkg/logjam"
	"github.com/tidwall/redcon"
	"github.com/zerodha/logf"
	"gopkg.in/yaml.v3"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
)

// App holds the single live record served over RESP. The codec imposes no
// locking, so every access to rec goes through mu.
type App struct {
	lo logf.Logger

	mu      sync.Mutex
	rec     *logjam.Record
	capture *capture.Log
}

func main() {
	ko, args, err := initConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	lo := initLogger(ko)
	if len(args) == 0 {
		lo.Fatal("missing command: layout, serve, dump or version")
	}

	switch args[0] {
	case "version":
		fmt.Println(buildString)
	case "layout":
		if err := printLayout(ko, lo); err != nil {
			lo.Fatal("error printing layout", "error", err)
		}
	case "serve":
		if err := serve(ko, lo); err != nil {
			lo.Fatal("error running server", "error", err)
		}
	case "dump":
		files := args[1:]
		if len(files) == 0 {
			files, err = capture.Files(ko.String("capture.dir"))
			if err != nil {
				lo.Fatal("error listing capture files", "error", err)
			}
		}
		for _, f := range files {
			if err := dump(f, os.Stdout); err != nil {
				lo.Fatal("error dumping capture file", "file", f, "error", err)
			}
		}
	default:
		lo.Fatal("unknown command", "command", args[0])
	}
}

type eventLayout struct {
	Name   string   `yaml:"name"`
	Enum   string   `yaml:"enum"`
	Func   string   `yaml:"func"`
	Code   int      `yaml:"code"`
	Size   int      `yaml:"size"`
	Fields []string `yaml:"fields,omitempty"`
}

// printLayout writes the catalog and event layouts as YAML for the
// rendering layer.
func printLayout(ko *koanf.Koanf, lo logf.Logger) error {
	cat, err := initCatalog(ko, lo)
	if err != nil {
		return err
	}
	events, err := initEvents(ko, lo)
	if err != nil {
		return err
	}

	n := logjam.NewNaming(cat.Name())
	out := struct {
		Record logjam.Layout `yaml:"record"`
		Events []eventLayout `yaml:"events,omitempty"`
	}{Record: cat.Layout()}

	for _, e := range events.Events() {
		size, err := events.Size(e.Name)
		if err != nil {
			return err
		}
		el := eventLayout{
			Name: e.Name,
			Enum: n.Enum(logjam.KindEvent, e.Name),
			Func: n.EventFunction(e.Name),
			Code: e.Code,
			Size: size,
		}
		for _, f := range e.Fields {
			el.Fields = append(el.Fields, f.TypeName()+" "+f.Name)
		}
		out.Events = append(out.Events, el)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func serve(ko *koanf.Koanf, lo logf.Logger) error {
	cat, err := initCatalog(ko, lo)
	if err != nil {
		return err
	}
	capLog, err := initCapture(ko, lo, cat)
	if err != nil {
		return err
	}

	app := &App{
		lo:      lo,
		rec:     logjam.NewRecord(logjam.NewCodec(cat)),
		capture: capLog,
	}

	var (
		done = make(chan struct{})
		wg   sync.WaitGroup
	)
	if capLog != nil {
		if interval := durationOr(ko, "capture.flush_interval", 0); interval > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				app.autoFlush(interval, done)
			}()
		}
		if interval := durationOr(ko, "capture.sync_interval", time.Minute); interval > 0 && !ko.Bool("capture.always_fsync") {
			wg.Add(1)
			go func() {
				defer wg.Done()
				app.syncCapture(interval, done)
			}()
		}
	}

	mux := redcon.NewServeMux()
	mux.HandleFunc("ping", app.ping)
	mux.HandleFunc("quit", app.quit)
	mux.HandleFunc("set", app.set)
	mux.HandleFunc("get", app.get)
	mux.HandleFunc("present", app.present)
	mux.HandleFunc("pending", app.pending)
	mux.HandleFunc("reset", app.reset)
	mux.HandleFunc("dump", app.dumpAll)
	mux.HandleFunc("flush", app.flushCmd)
	mux.HandleFunc("load", app.load)
	mux.HandleFunc("layout", app.layout)

	addr := ko.String("server.address")
	if addr == "" {
		addr = ":6380"
	}
	srv := redcon.NewServer(addr,
		mux.ServeRESP,
		func(conn redcon.Conn) bool {
			// use this function to accept or deny the connection.
			return true
		},
		func(conn redcon.Conn, err error) {
			// this is called when the connection has been closed
		},
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		lo.Info("shutting down")
		srv.Close()
	}()

	lo.Info("starting server", "address", addr, "record", cat.Name(), "fields", cat.Len(), "version", buildString)
	err = srv.ListenAndServe()

	// Stop the background workers before the capture log goes away.
	close(done)
	wg.Wait()

	if app.capture != nil {
		// Persist whatever is still pending before releasing the lock.
		app.mu.Lock()
		if _, ferr := app.flush(); ferr != nil {
			lo.Error("error flushing record on shutdown", "error", ferr)
		}
		app.mu.Unlock()
		if cerr := app.capture.Close(); cerr != nil {
			lo.Error("error closing capture log", "error", cerr)
		}
	}
	return err
}

// flush encodes the pending selection, appends it to the capture log and
// clears presence. Callers must hold mu.
func (app *App) flush() ([]byte, error) {
	buf, err := app.rec.Encode()
	if err != nil {
		return nil, err
	}
	if app.capture != nil && app.rec.Pending() {
		if err := app.capture.Append(buf); err != nil {
			return nil, err
		}
	}
	app.rec.Reset()
	return buf, nil
}

// autoFlush flushes pending fields at a periodic interval until done is
// closed.
func (app *App) autoFlush(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			app.mu.Lock()
			if app.rec.Pending() {
				if _, err := app.flush(); err != nil {
					app.lo.Error("error flushing record", "error", err)
				}
			}
			app.mu.Unlock()
		}
	}
}

// syncCapture calls fsync on the capture log at a periodic interval until
// done is closed.
func (app *App) syncCapture(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := app.capture.Sync(); err != nil {
				app.lo.Error("error syncing capture file to disk", "error", err)
			}
		}
	}
}
