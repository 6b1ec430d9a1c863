package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"bompick/internal"
	"bompick/internal/catalog"
	"bompick/internal/config"
	"bompick/internal/keyword"
	"bompick/internal/logging"
	"bompick/internal/pipeline"
	"bompick/internal/session"
	"bompick/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "bom:open":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "bom file (.xlsx|.csv|.html)")
		name := fs.String("session", "default", "session name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		table, err := pipeline.ReadBOM(*input)
		must(err)
		columns, err := pipeline.MapHeaders(table.Headers)
		must(err)
		items := pipeline.Consolidate(columns, table.Rows)

		sess := session.New(*name, items)
		must(db.SaveSession(sess))

		conflicts := 0
		for _, item := range items {
			conflicts += len(item.Conflicts)
		}
		log.Info("bom opened",
			zap.String("session", *name),
			zap.Int("rows", len(table.Rows)),
			zap.Int("lineItems", len(items)),
			zap.Int("mergeConflicts", conflicts))
		for _, item := range items {
			fmt.Printf("%3d  qty=%-4d  %-24s %-12s %-10s %s\n",
				item.ID, item.Quantity,
				item.Field(internal.FieldMPN),
				item.Field(internal.FieldValue),
				item.Field(internal.FieldPackage),
				strings.Join(item.RefDes, ","))
		}

	case "bom:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("session", "default", "session name")
		line := fs.Int("line", 0, "restrict to one line item id")
		kw := fs.String("keyword", "", "custom search keyword (requires --line)")
		inStockOnly := fs.Bool("in-stock-only", cfg.InStockOnly, "search in-stock parts only")
		_ = fs.Parse(os.Args[2:])
		if *kw != "" && *line == 0 {
			must(fmt.Errorf("--keyword requires --line"))
		}
		must(cfg.Require("MOUSER_API_KEY", cfg.MouserAPIKey))
		cfg.InStockOnly = *inStockOnly

		sess, err := db.LoadSession(*name)
		must(err)
		svc := pipeline.NewSearchService(cfg, catalog.NewClient(cfg, log), keyword.NewGenerator(cfg, log), log)
		searched, total, err := svc.SearchSession(context.Background(), sess, *line, *kw)
		must(err)
		must(db.SaveSession(sess))
		fmt.Printf("searched %d line items, %d candidates stored\n", searched, total)

	case "bom:rank":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("session", "default", "session name")
		line := fs.Int("line", 0, "line item id")
		allowObsolete := fs.Bool("allow-obsolete", cfg.AllowObsolete, "keep obsolete parts")
		inStockOnly := fs.Bool("in-stock-only", cfg.InStockOnly, "drop zero-stock parts")
		top := fs.Int("top", cfg.RankTopN, "result limit, 0 for all")
		_ = fs.Parse(os.Args[2:])
		if *line == 0 {
			must(fmt.Errorf("--line is required"))
		}

		sess, err := db.LoadSession(*name)
		must(err)
		item, ok := sess.Item(*line)
		if !ok {
			must(fmt.Errorf("no line item %d in session %q", *line, *name))
		}

		scored := pipeline.Rank(*item, sess.Candidates(*line), pipeline.RankOptions{
			AllowObsolete:     *allowObsolete,
			ExcludeOutOfStock: *inStockOnly,
			Limit:             *top,
		})
		printScored(*item, scored)

	case "bom:select":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("session", "default", "session name")
		line := fs.Int("line", 0, "line item id")
		candidate := fs.String("candidate", "", "candidate id")
		_ = fs.Parse(os.Args[2:])
		if *line == 0 || strings.TrimSpace(*candidate) == "" {
			must(fmt.Errorf("--line and --candidate are required"))
		}

		sess, err := db.LoadSession(*name)
		must(err)
		must(sess.Select(*line, *candidate))
		must(db.SaveSession(sess))
		fmt.Printf("line %d -> %s\n", *line, *candidate)

	case "bom:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("session", "default", "session name")
		out := fs.String("out", "", "output path (.xlsx|.csv)")
		onlySelected := fs.Bool("only-selected", false, "skip line items without a selection")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		sess, err := db.LoadSession(*name)
		must(err)
		rows := sess.ExportRows(*onlySelected)
		if len(rows) == 0 {
			must(fmt.Errorf("nothing to export in session %q", *name))
		}
		must(pipeline.ExportRows(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)

	case "bom:sessions":
		names, err := db.ListSessions()
		must(err)
		for _, n := range names {
			fmt.Println(n)
		}

	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "bom file (.xlsx|.csv|.html)")
		output := fs.String("output", "", "output path (.xlsx|.csv)")
		allowObsolete := fs.Bool("allow-obsolete", cfg.AllowObsolete, "keep obsolete parts")
		inStockOnly := fs.Bool("in-stock-only", cfg.InStockOnly, "drop zero-stock parts")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		must(cfg.Require("MOUSER_API_KEY", cfg.MouserAPIKey))
		cfg.InStockOnly = *inStockOnly

		table, err := pipeline.ReadBOM(*input)
		must(err)
		columns, err := pipeline.MapHeaders(table.Headers)
		must(err)
		items := pipeline.Consolidate(columns, table.Rows)
		sess := session.New("oneshot", items)

		svc := pipeline.NewSearchService(cfg, catalog.NewClient(cfg, log), keyword.NewGenerator(cfg, log), log)
		ctx := context.Background()
		opts := pipeline.RankOptions{AllowObsolete: *allowObsolete, ExcludeOutOfStock: *inStockOnly}
		for _, item := range items {
			candidates, err := svc.SearchLineItem(ctx, item, "")
			if err != nil {
				log.Warn("search failed", zap.Int("lineItem", item.ID), zap.Error(err))
				continue
			}
			must(sess.SetCandidates(item.ID, candidates))
			scored := pipeline.Rank(item, candidates, opts)
			if len(scored) > 0 {
				must(sess.Select(item.ID, scored[0].ID))
			}
		}

		must(db.SaveSession(sess))
		rows := sess.ExportRows(false)
		must(pipeline.ExportRows(rows, *output))
		fmt.Printf("run done lineItems=%d output=%s\n", len(rows), *output)

	default:
		usage()
		os.Exit(1)
	}
}

func printScored(item internal.LineItem, scored []internal.ScoredCandidate) {
	fmt.Printf("line %d  qty=%d  package=%q  %d candidates\n",
		item.ID, item.Quantity, item.Field(internal.FieldPackage), len(scored))
	fmt.Println("rank  score  stock  price  life   pkg    id                mpn                      stock      lifecycle")
	for i, sc := range scored {
		fmt.Printf("%4d  %.3f  %.2f   %.2f   %.2f   %.2f   %-16s  %-24s %-10d %s\n",
			i+1, sc.Score, sc.Sub.Stock, sc.Sub.Price, sc.Sub.Lifecycle, sc.Sub.Package,
			sc.ID, sc.PartNumber, sc.Stock, sc.Lifecycle)
	}
}

func usage() {
	fmt.Println("usage: bompick <command>")
	fmt.Println("commands:")
	fmt.Println("  bom:open     --input=bom.xlsx [--session=default]")
	fmt.Println("  bom:search   [--session=default] [--line=N] [--keyword=...] [--in-stock-only]")
	fmt.Println("  bom:rank     --line=N [--session=default] [--allow-obsolete] [--in-stock-only] [--top=10]")
	fmt.Println("  bom:select   --line=N --candidate=ID [--session=default]")
	fmt.Println("  bom:export   --out=result.xlsx [--session=default] [--only-selected]")
	fmt.Println("  bom:sessions")
	fmt.Println("  run          --input=bom.xlsx --output=result.xlsx [--allow-obsolete] [--in-stock-only]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
