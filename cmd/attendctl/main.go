// Command attendctl drives the attendance API from a terminal. It stores the
// session token between runs and prints results as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"attendclient/internal/apiclient"
	"attendclient/internal/config"
	"attendclient/internal/tokenstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	client *apiclient.Client
	tokens tokenstore.Store
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.LoadClient()

	global := flag.NewFlagSet("attendctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	server := global.String("server", cfg.BaseURL, "API base URL")
	timeout := global.Duration("timeout", cfg.Timeout, "per-request timeout")
	backend := global.String("token-backend", cfg.TokenBackend, "session storage: file, redis or memory")
	tokenFile := global.String("token-file", cfg.TokenFile, "session file for the file backend")
	metricsDump := global.Bool("metrics-dump", cfg.MetricsDump, "write client metrics to stderr on exit")
	debug := global.Bool("debug", cfg.Debug, "log requests to stderr")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage(global)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(global)
		return 2
	}

	tokens, err := tokenstore.Open(*backend, *tokenFile, cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	reg := prometheus.NewRegistry()
	metrics := apiclient.NewMetrics(reg)
	if *metricsDump {
		defer dumpMetrics(reg, stderr)
	}

	var logger *log.Logger
	if *debug {
		logger = log.New(stderr, "attendctl: ", log.LstdFlags)
	}
	a := &app{
		client: apiclient.New(apiclient.Config{
			BaseURL:      *server,
			Timeout:      *timeout,
			LoginTimeout: cfg.LoginTimeout,
			Metrics:      metrics,
			Logger:       logger,
		}, tokens),
		tokens: tokens,
		out:    stdout,
	}

	fs := flag.NewFlagSet(rest[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	exec := cmd.setup(fs)
	if err := fs.Parse(rest[1:]); err != nil {
		return 2
	}
	result, err := exec(ctx, a)
	if err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(stderr, "usage:", usageErr)
			fs.PrintDefaults()
			return 2
		}
		fmt.Fprintln(stderr, "error:", apiclient.Describe(err))
		return 1
	}
	if err := a.print(result); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// dumpMetrics writes reg in the Prometheus text format.
func dumpMetrics(reg prometheus.Gatherer, w io.Writer) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintln(w, "metrics:", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			fmt.Fprintln(w, "metrics:", err)
			return
		}
	}
}

type usageError string

func (u usageError) Error() string { return string(u) }

// print renders messages as plain lines and everything else as JSON.
func (a *app) print(v any) error {
	switch r := v.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(a.out, r)
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// role returns the role recorded by the last login.
func (a *app) role(ctx context.Context) (apiclient.Role, error) {
	r, err := a.tokens.Get(ctx, tokenstore.RoleKey)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return "", errors.New("no role stored, log in with -role first")
	}
	if err != nil {
		return "", err
	}
	return apiclient.Role(r), nil
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: attendctl [flags] <command> [command flags]")
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, commands[name].help)
	}
}

func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, "-"+pairs[i])
		}
	}
	if len(missing) > 0 {
		return usageError("missing " + strings.Join(missing, ", "))
	}
	return nil
}
