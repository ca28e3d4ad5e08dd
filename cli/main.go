package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/archive"
	"github.com/ankit-chaubey/metascrub/core/engine"
)

const usage = `surgery - inspect and strip file metadata

Usage:
  surgery view    [flags] <file>...           show metadata, GPS and privacy risk
  surgery clean   [flags] <file>              write a copy without metadata
  surgery extract [flags] <file>              print the decoded EXIF map
  surgery batch   [flags] <file>...           clean many files, flag duplicates
  surgery zip     [flags] <archive.zip>       clean every image inside an archive
  surgery formats [flags]                     list supported formats
  surgery serve   [flags]                     run the HTTP API

Common flags:
  --config <file>   YAML config (default surgery.yaml when present)
  --json            JSON output
  --log-level <l>   debug | info | warn | error
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *Config
	log     zerolog.Logger
	printer *core.Printer
	cleaner *engine.Cleaner
	stdout  io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cmd, rest := args[0], args[1:]
	commands := map[string]func(*flag.FlagSet) runner{
		"view":    cmdView,
		"clean":   cmdClean,
		"extract": cmdExtract,
		"batch":   cmdBatch,
		"zip":     cmdZip,
		"formats": cmdFormats,
		"serve":   cmdServe,
	}
	setup, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	jsonOut := fs.Bool("json", false, "JSON output")
	logLevel := fs.String("log-level", "", "log level")

	fn := setup(fs)
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "✗ Error: "+err.Error())
		return 1
	}
	if *jsonOut {
		cfg.Output.Format = "json"
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	a := &app{cfg: cfg, stdout: stdout}
	a.log = core.NewLogger(stderr, cfg.Log.Level, cfg.Log.Pretty)
	a.printer = core.NewPrinterTo(stdout, cfg.Output.Format == "json", core.UseColor(cfg.Output.Color, stdout))
	a.cleaner = engine.New(engine.Options{
		Observer:  core.LogObserver{Logger: a.log},
		Precision: cfg.Precision(),
	})

	if err := fn(a, fs.Args()); err != nil {
		a.log.Error().Err(err).Str("command", cmd).Msg("command failed")
		return 1
	}
	return 0
}

// runner executes a subcommand with its positional arguments. Each
// command constructor registers its flags and returns a runner that reads
// them after parsing.
type runner func(a *app, args []string) error

func (a *app) printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(a.stdout, string(b))
}

// ─── view ────────────────────────────────────────────────────────────────────

func cmdView(fs *flag.FlagSet) runner {
	return func(a *app, args []string) error {
		if len(args) == 0 {
			return errors.New("view needs at least one file")
		}
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			r, err := a.cleaner.Inspect(filepath.Base(path), "", data)
			if err != nil {
				return errors.Wrap(err, path)
			}
			a.printer.PrintReport(r)
		}
		return nil
	}
}

// ─── clean ───────────────────────────────────────────────────────────────────

func cmdClean(fs *flag.FlagSet) runner {
	out := fs.String("o", "", "output path (default <name>_clean.<ext>)")
	format := fs.String("format", "", "format hint, e.g. jpg (default: detected)")
	overwrite := fs.Bool("overwrite", false, "replace an existing output file")

	return func(a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("clean needs exactly one file")
		}
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		hint := *format
		if hint == "" {
			hint = string(core.DetectFormat(path, data))
		}
		res, err := a.cleaner.Clean(data, hint)
		if err != nil {
			return errors.Wrap(err, path)
		}

		dst := core.ResolveOutPath(path, *out, a.cfg.Clean.Suffix)
		if err := a.writeOutput(dst, res.Data, *overwrite); err != nil {
			return err
		}
		a.reportClean(path, dst, len(data), res)
		return nil
	}
}

func (a *app) writeOutput(path string, data []byte, force bool) error {
	if !force && !a.cfg.Clean.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("%s already exists (use --overwrite)", path)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (a *app) reportClean(src, dst string, before int, res *engine.Result) {
	if a.printer.JSON {
		a.printJSON(map[string]any{
			"input":    src,
			"output":   dst,
			"format":   res.Format,
			"dropped":  res.Dropped,
			"complete": res.Complete,
			"note":     res.Note,
		})
		return
	}
	a.printer.PrintSuccess(fmt.Sprintf("%s → %s (%s → %s, %d unit(s) removed)",
		src, dst, core.HumanSize(int64(before)), core.HumanSize(int64(len(res.Data))), len(res.Dropped)))
	if !res.Complete {
		a.printer.PrintWarning(res.Note)
	}
}

// ─── extract ─────────────────────────────────────────────────────────────────

func cmdExtract(fs *flag.FlagSet) runner {
	export := fs.String("export", "", "csv | txt | json")

	return func(a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("extract needs exactly one file")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		meta, gps := engine.Extract(data)
		r := &core.Report{
			Name:      filepath.Base(args[0]),
			Size:      len(data),
			HumanSize: core.HumanSize(int64(len(data))),
			Metadata:  meta,
			GPS:       gps,
		}

		switch *export {
		case "csv":
			fmt.Fprint(a.stdout, core.ExportCSV(r))
		case "txt":
			fmt.Fprint(a.stdout, core.ExportTXT(r))
		case "json":
			b, err := core.ExportJSON(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(b))
		case "":
			m := &core.Metadata{Name: r.Name, Format: "EXIF"}
			for _, k := range core.SortedKeys(meta) {
				m.Add(core.LookupTag(k).Category, k, meta[k])
			}
			a.printer.PrintMetadata(m)
			if gps != nil && !a.printer.JSON {
				fmt.Fprintf(a.stdout, "GPS: %v, %v\n", gps.Latitude, gps.Longitude)
			}
		default:
			return errors.Errorf("unknown export format %q", *export)
		}
		return nil
	}
}

// ─── batch ───────────────────────────────────────────────────────────────────

func cmdBatch(fs *flag.FlagSet) runner {
	outDir := fs.String("out", "", "output directory (default: next to each input)")

	return func(a *app, args []string) error {
		if len(args) == 0 {
			return errors.New("batch needs at least one file")
		}
		items := make([]engine.Item, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			items = append(items, engine.Item{Name: path, Data: data})
		}
		return a.runBatch(items, *outDir)
	}
}

func (a *app) runBatch(items []engine.Item, outDir string) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
	}

	results := a.cleaner.Batch(items, func(done, total int) {
		a.log.Info().Int("done", done).Int("total", total).Msg("progress")
	})

	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			a.printer.PrintWarning(r.Err.Error())
			continue
		}
		dst := engine.CleanName(r.Name, a.cfg.Clean.Suffix)
		if outDir != "" {
			dst = filepath.Join(outDir, filepath.Base(dst))
		}
		if err := a.writeOutput(dst, r.Result.Data, false); err != nil {
			failed++
			a.printer.PrintWarning(err.Error())
			continue
		}
		a.reportClean(r.Name, dst, len(items[i].Data), r.Result)
	}

	dups := engine.Duplicates(results)
	hashes := make([]string, 0, len(dups))
	for h := range dups {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	for _, h := range hashes {
		a.printer.PrintWarning(fmt.Sprintf("duplicate files (%.16s...): %s", h, strings.Join(dups[h], ", ")))
	}

	if failed > 0 {
		return errors.Errorf("%d of %d file(s) failed", failed, len(items))
	}
	return nil
}

// ─── zip ─────────────────────────────────────────────────────────────────────

// maxArchiveEntries bounds how many files one archive may expand to.
const maxArchiveEntries = 10000

func cmdZip(fs *flag.FlagSet) runner {
	outDir := fs.String("out", "", "output directory (default: <archive>_clean)")

	return func(a *app, args []string) error {
		if len(args) != 1 {
			return errors.New("zip needs exactly one archive")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		entries, err := archive.ExtractImages(data, maxArchiveEntries)
		if err != nil {
			return errors.Wrap(err, args[0])
		}
		if len(entries) == 0 {
			a.printer.PrintInfo("no supported files in archive")
			return nil
		}

		items := make([]engine.Item, 0, len(entries))
		for _, e := range entries {
			items = append(items, engine.Item{
				Name: filepath.Base(e.Name),
				Hint: string(core.FormatFromMIME(e.MIME)),
				Data: e.Data,
			})
		}

		dir := *outDir
		if dir == "" {
			dir = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + a.cfg.Clean.Suffix
		}
		return a.runBatch(items, dir)
	}
}

// ─── formats ─────────────────────────────────────────────────────────────────

func cmdFormats(fs *flag.FlagSet) runner {
	return func(a *app, args []string) error {
		caps := engine.Capabilities()
		if a.printer.JSON {
			a.printJSON(caps)
			return nil
		}
		fmt.Fprintf(a.stdout, "%-10s %-9s %-5s %-8s %s\n", "FORMAT", "MEDIA", "VIEW", "CLEAN", "NOTES")
		for _, c := range caps {
			clean := yesNo(c.CanStrip)
			if c.CanStrip && !c.StripsAll {
				clean = "partial"
			}
			fmt.Fprintf(a.stdout, "%-10s %-9s %-5s %-8s %s\n", c.Name, c.MediaType, yesNo(c.CanView), clean, c.Notes)
		}
		return nil
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
