package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/config"
	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/host"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

func runExec(cmd *cobra.Command, flags *rootFlags, as string, args []string) error {
	a, err := newApp(flags, appOptions{console: cmd.OutOrStdout(), logs: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	sender, err := a.sender(as)
	if err != nil {
		return err
	}
	name := strings.TrimPrefix(args[0], "/")
	outcome, err := a.dispatcher.Execute(cmd.Context(), sender, name, args[1:])
	a.flushInboxes(sender)
	if err != nil {
		return err
	}
	if !outcome.Passed {
		return fmt.Errorf("command rejected: %s", outcome.Reason)
	}
	return nil
}

func runRules(cmd *cobra.Command, flags *rootFlags, asJSON bool) error {
	a, err := newApp(flags, appOptions{console: io.Discard, logs: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	rules := a.dispatcher.Registry().List()
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGS\tSOURCE\tTARGET\tUSAGE")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Arity(), r.Source, r.Target, r.Usage)
	}
	return w.Flush()
}

type recordsOptions struct {
	lookup string
	limit  int
	offset int
}

// runRecords prints stored player records: one record when a name or uuid
// is given, otherwise a page of records, most recently seen first.
func runRecords(cmd *cobra.Command, flags *rootFlags, opts recordsOptions) error {
	a, err := newApp(flags, appOptions{console: io.Discard, logs: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx := cmd.Context()
	var records []*storage.PlayerRecord
	if opts.lookup != "" {
		var rec *storage.PlayerRecord
		if id, perr := uuid.Parse(opts.lookup); perr == nil {
			rec, err = a.records.GetByID(ctx, id)
		} else {
			rec, err = a.records.Get(ctx, opts.lookup)
		}
		if err != nil {
			return fmt.Errorf("look up %q: %w", opts.lookup, err)
		}
		if rec == nil {
			return fmt.Errorf("no record for %q", opts.lookup)
		}
		records = append(records, rec)
	} else {
		records, err = a.records.List(ctx, opts.limit, opts.offset)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUUID\tLAST SEEN\tLOCATION")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Name, rec.ID, rec.LastSeen.Format(time.RFC3339),
			format.FormatLocation(rec.Location, true))
	}
	return w.Flush()
}

type renderOptions struct {
	primary string
	sender  string
	target  string
	command string
	raw     bool
}

func runRender(cmd *cobra.Command, flags *rootFlags, opts renderOptions, template string) error {
	cfg, err := loadConfig(resolveConfigPath(flags.configPath))
	if err != nil {
		return err
	}
	renderer, err := cfg.Renderer()
	if err != nil {
		return err
	}

	inst := &format.Instance{
		AdminName:   cfg.Admin.Name,
		SenderName:  opts.sender,
		TargetName:  opts.target,
		GivenTarget: opts.target,
		Command:     opts.command,
	}
	text := renderer.Render(unescape(template), opts.primary, inst)

	out := cmd.OutOrStdout()
	switch {
	case opts.raw:
	case isTerminal(out):
		text = format.NewTerminal(out).Render(text, renderer.Prefix())
	default:
		text = format.StripCodes(text, renderer.Prefix())
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

// unescape turns a literal \n typed on the command line into a newline.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func runConfigSchema(cmd *cobra.Command) error {
	data, err := config.JSONSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runConfigValidate(cmd *cobra.Command, path string) error {
	path = resolveConfigPath(path)
	if path == "" {
		return fmt.Errorf("no config file given; pass a path or --config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := checkCommandOverrides(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (version %d, %d players, %d command overrides)\n",
		path, cfg.Version, len(cfg.Server.Players), len(cfg.Commands))
	return nil
}

// checkCommandOverrides applies overrides to a throwaway dispatcher so that
// unknown command names and invalid resulting rules are reported.
func checkCommandOverrides(cfg *config.Config) error {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := host.New(cfg, host.WithConsole(io.Discard), host.WithLogger(quiet))
	if err != nil {
		return err
	}
	renderer, err := cfg.Renderer()
	if err != nil {
		return err
	}
	d := commands.NewDispatcher(commands.NewRegistry(quiet), server, renderer, commands.WithLogger(quiet))
	if err := commands.RegisterBuiltins(d, commands.Builtins{Server: server}); err != nil {
		return err
	}
	return config.ApplyCommandOverrides(d, cfg.Commands)
}

func runVersion(cmd *cobra.Command) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "simpleplugin %s (commit %s, built %s)\n", version, commit, date)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func parseCoords(args []string) (x, y, z float64, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected x y z")
	}
	var vals [3]float64
	for i, s := range args {
		vals[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("coordinate %q: %w", s, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}
