package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gregLibert/sgqr/pkg/config"
	"github.com/gregLibert/sgqr/pkg/server"
	"github.com/gregLibert/sgqr/pkg/sgqr"
	"github.com/gregLibert/sgqr/pkg/tlv"
	"github.com/rs/zerolog"
)

const usage = `usage: sgqr <command> [flags]

commands:
  build   -config merchant.yaml [-describe]   assemble a payload from a JSON or YAML config
  parse   [-payload P] [-json]                decode a payload (reads stdin when -payload is empty)
  verify  [-payload P]                        check structure and CRC
  serve   [-addr :8080]                       run the HTTP API (default address from SGQR_ADDR)
`

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "build":
		err = runBuild(args, os.Stdout)
	case "parse":
		err = runParse(args, os.Stdin, os.Stdout)
	case "verify":
		err = runVerify(args, os.Stdin, os.Stdout)
	case "serve":
		err = runServe(args, logger)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

// runBuild loads a config file and prints the assembled payload.
func runBuild(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a JSON or YAML payload config")
	describe := fs.Bool("describe", false, "Print a field report after the payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("build: -config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	payload, err := sgqr.Build(cfg)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	fmt.Fprintln(out, payload)

	if *describe {
		m, err := sgqr.ParseMerchant(payload)
		if err != nil {
			return fmt.Errorf("describe: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, m.Describe())
	}
	return nil
}

// runParse prints the annotated field tree, indented text by default or JSON.
func runParse(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	payloadFlag := fs.String("payload", "", "Payload string (stdin when empty)")
	asJSON := fs.Bool("json", false, "Emit JSON instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readPayload(*payloadFlag, in)
	if err != nil {
		return err
	}

	fields := sgqr.Parse(payload)

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(fields)
	}

	printFields(out, fields, 0)
	return nil
}

func printFields(out io.Writer, fields []tlv.Field, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, f := range fields {
		fmt.Fprintf(out, "%s[%s] %s (%s): %s\n", indent, f.Tag, f.Name, f.Length, f.Value)
		if f.Comment != "" {
			fmt.Fprintf(out, "%s     # %s\n", indent, f.Comment)
		}
		printFields(out, f.Children, depth+1)
	}
}

// runVerify reports structural problems and the CRC result. Any problem is an error.
func runVerify(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	payloadFlag := fs.String("payload", "", "Payload string (stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readPayload(*payloadFlag, in)
	if err != nil {
		return err
	}

	problems := errors.Join(
		sgqr.Verify(payload),
		sgqr.Validate(sgqr.Parse(payload)),
	)
	if problems != nil {
		return fmt.Errorf("payload rejected:\n%w", problems)
	}

	fmt.Fprintln(out, ">> Payload OK")
	return nil
}

// runServe starts the HTTP API and shuts it down on SIGINT or SIGTERM.
func runServe(args []string, logger zerolog.Logger) error {
	defaultAddr := os.Getenv("SGQR_ADDR")
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", defaultAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readPayload(flagValue string, in io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	payload := strings.TrimRight(string(data), "\r\n")
	if payload == "" {
		return "", errors.New("no payload given")
	}
	return payload, nil
}
