package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zcline91/spam-filter/internal/config"
	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/pipeline"
	"github.com/zcline91/spam-filter/internal/record"
	"github.com/zcline91/spam-filter/internal/storage"
)

// --- extract ---

var (
	extractType     string
	extractAll      string
	extractOutDir   string
	extractFile     string
	extractForce    bool
	extractIndexDir string
)

var extractCmd = &cobra.Command{
	Use:   "extract (-t TYPE ROOT | --all DATA_ROOT)",
	Short: "Extract raw corpora into CSV files",
	Long: `Extract a single corpus (-t enron|ling|trec ROOT) or every recognised
corpus directory below DATA_ROOT (--all) into path,label,subject,body CSV files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jobs, err := extractJobs(cfg, args)
		if err != nil {
			return err
		}

		env, store, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()

		indexDir := extractIndexDir
		if indexDir == "" {
			indexDir = cfg.Data.IndexDir
		}
		for _, j := range jobs {
			printStep("extracting %s corpus at %s", j.Kind, j.Root)
		}
		reports, err := env.ExtractCorpora(ctx, jobs, pipeline.ExtractOptions{
			IndexDir: indexDir,
			Force:    extractForce,
		})
		for _, r := range reports {
			printReport(r)
		}
		if err != nil {
			if corpus.IsOutputConflict(err) {
				printWarning("use --force to overwrite existing output")
			}
			return err
		}
		printSuccess("extracted %d corpora", len(reports))
		return nil
	},
}

func extractJobs(cfg config.Config, args []string) ([]corpus.Job, error) {
	outDir := extractOutDir
	if outDir == "" {
		outDir = cfg.Data.ClassesDir
	}
	switch {
	case extractAll != "" && extractType != "":
		return nil, fmt.Errorf("-t and --all are mutually exclusive")
	case extractAll != "":
		if len(args) > 0 {
			return nil, fmt.Errorf("--all takes no positional arguments")
		}
		if extractFile != "" {
			return nil, fmt.Errorf("-f cannot be used with --all")
		}
		jobs, err := corpus.Discover(extractAll, outDir)
		if err != nil {
			return nil, err
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no corpus directories found in %s", extractAll)
		}
		return jobs, nil
	case extractType != "":
		if len(args) != 1 {
			return nil, fmt.Errorf("-t requires the corpus root directory")
		}
		kind, err := corpus.ParseKind(extractType)
		if err != nil {
			return nil, err
		}
		job, err := corpus.NewJob(kind, args[0], outDir, extractFile)
		if err != nil {
			return nil, err
		}
		return []corpus.Job{job}, nil
	}
	return nil, fmt.Errorf("one of -t or --all is required")
}

func printReport(r corpus.Report) {
	fmt.Fprintln(out, colorize(colorBold, r.Root))
	printStatus("Index entries", "%d", r.Total)
	printStatus("Extracted", "%d (%s)", r.Extracted, percent(r.Extracted, r.Total))
	printStatus("Missing files", "%d", r.Missing)
	printStatus("Encoding errors", "%d", r.Encoding)
	printStatus("Unsupported types", "%d", r.Unsupported)
	if len(r.RejectedCharsets) > 0 {
		parts := make([]string, len(r.RejectedCharsets))
		for i, c := range r.RejectedCharsets {
			parts[i] = fmt.Sprintf("%s=%d", c.Charset, c.Count)
		}
		printStatus("Rejected charsets", "%s", strings.Join(parts, ", "))
	}
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractType, "type", "t", "", "corpus type: enron, ling or trec")
	f.StringVar(&extractAll, "all", "", "extract every corpus directory below this data root")
	f.StringVarP(&extractOutDir, "outdir", "d", "", "output directory (default data.classes_dir)")
	f.StringVarP(&extractFile, "file", "f", "", "output file name (default inferred from the root directory)")
	f.BoolVarP(&extractForce, "force", "F", false, "overwrite existing output files")
	f.StringVar(&extractIndexDir, "index-dir", "", "directory holding the enron/ling index files (default data.index_dir)")
}

// --- classes ---

var (
	classesCorpusDir string
	classesCorpora   []string
	classesOutDir    string
	classesRatio     float64
	classesForce     bool
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Clean, split and write the train/test class files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("ratio") {
			cfg.Split.TestRatio = classesRatio
		}
		corpusDir := orDefault(classesCorpusDir, cfg.Data.ClassesDir)
		outDir := orDefault(classesOutDir, cfg.Data.ClassesDir)

		env, store, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()

		printStep("loading corpora from %s", corpusDir)
		splits, err := env.WriteClasses(ctx, pipeline.ClassesOptions{
			CorpusDir: corpusDir,
			Corpora:   classesCorpora,
			OutDir:    outDir,
			Ratio:     cfg.Split.TestRatio,
			Force:     classesForce,
		})
		if err != nil {
			if corpus.IsOutputConflict(err) {
				printWarning("use --force to overwrite existing class files")
			}
			if dataset.IsMissingCorpus(err) {
				printWarning("use --corpora to load a subset of the corpora")
			}
			return err
		}
		printSplits(splits)
		printSuccess("wrote %s and %s to %s", dataset.TrainClassesFile, dataset.TestClassesFile, outDir)
		return nil
	},
}

func printSplits(s pipeline.Splits) {
	total := len(s.Train) + len(s.Test)
	for _, p := range pipeline.Partitions {
		set := s.Set(p)
		spam := 0
		for _, r := range set {
			if r.Label == record.Spam {
				spam++
			}
		}
		printStatus(p.String(), "%d records (%s), %d spam", len(set), percent(len(set), total), spam)
	}
}

func init() {
	f := classesCmd.Flags()
	f.StringVar(&classesCorpusDir, "corpus-dir", "", "directory holding the extracted corpus CSVs (default data.classes_dir)")
	f.StringSliceVar(&classesCorpora, "corpora", nil, "load only these corpora, e.g. enron,trec07 (default all known corpora)")
	f.StringVarP(&classesOutDir, "outdir", "d", "", "output directory (default data.classes_dir)")
	f.Float64Var(&classesRatio, "ratio", dataset.DefaultTestRatio, "fraction of records assigned to the test set")
	f.BoolVarP(&classesForce, "force", "F", false, "overwrite existing class files")
}

// --- docs ---

var (
	docsCorpusDir string
	docsCorpora   []string
	docsSet       string
	docsField     string
	docsBatchSize int
	docsOutDir    string
	docsForce     bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Build or verify the per-email document caches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partitions, err := parsePartitions(docsSet)
		if err != nil {
			return err
		}
		fields, err := parseFields(docsField)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("batchsize") {
			if docsBatchSize <= 0 {
				return fmt.Errorf("--batchsize must be positive, got %d", docsBatchSize)
			}
			cfg.Features.BatchSize = docsBatchSize
		}
		corpusDir := orDefault(docsCorpusDir, cfg.Data.ClassesDir)
		outDir := orDefault(docsOutDir, cfg.Data.DocsDir)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", outDir, err)
		}

		env, store, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signalContext()
		defer stop()

		splits, err := env.LoadSplits(ctx, corpusDir, docsCorpora, cfg.Split.TestRatio)
		if err != nil {
			return err
		}
		printSplits(splits)

		start := time.Now()
		err = env.BuildDocs(ctx, splits, pipeline.DocsOptions{
			OutDir:     outDir,
			Partitions: partitions,
			Fields:     fields,
			Force:      docsForce,
		})
		if err != nil {
			return err
		}
		for _, p := range partitions {
			for _, f := range fields {
				printStatus(p.String()+string(f), "%s", pipeline.CachePath(outDir, p, f))
			}
		}
		printSuccess("document caches ready in %s", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func parsePartitions(s string) ([]dataset.Partition, error) {
	switch s {
	case "all":
		return pipeline.Partitions, nil
	case dataset.Train.String():
		return []dataset.Partition{dataset.Train}, nil
	case dataset.Test.String():
		return []dataset.Partition{dataset.Test}, nil
	}
	return nil, fmt.Errorf("--set must be train, test or all, got %q", s)
}

func parseFields(s string) ([]record.Field, error) {
	if s == "all" {
		return pipeline.Fields, nil
	}
	f, err := record.ParseField(s)
	if err != nil {
		return nil, fmt.Errorf("--field: %w", err)
	}
	return []record.Field{f}, nil
}

func init() {
	f := docsCmd.Flags()
	f.StringVar(&docsCorpusDir, "corpus-dir", "", "directory holding the extracted corpus CSVs (default data.classes_dir)")
	f.StringSliceVar(&docsCorpora, "corpora", nil, "load only these corpora; must match the classes run (default all known corpora)")
	f.StringVar(&docsSet, "set", "all", "partition to build: train, test or all")
	f.StringVar(&docsField, "field", "all", "field to build: body, subject or all")
	f.IntVar(&docsBatchSize, "batchsize", 0, "records per feature batch (default features.batch_size)")
	f.StringVarP(&docsOutDir, "outdir", "d", "", "output directory (default data.docs_dir)")
	f.BoolVarP(&docsForce, "force", "F", false, "rebuild existing caches")
}

// --- check ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the class files against the document caches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		train, test, err := pipeline.LoadTrainTest(ctx, cfg.Data.ClassesDir, cfg.Data.DocsDir)
		if err != nil {
			return err
		}
		printStatus("train", "%d records", train.Len())
		printStatus("test", "%d records", test.Len())
		printSuccess("caches match the class files")
		return nil
	},
}

// --- runs ---

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded pipeline runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %-8s %-9s %-14s %s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Kind, statusText(r.Status), orDefault(r.Corpus, "-"), r.ID)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		r, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		printStatus("ID", "%s", r.ID)
		printStatus("Kind", "%s", r.Kind)
		printStatus("Status", "%s", statusText(r.Status))
		if r.Corpus != "" {
			printStatus("Corpus", "%s", r.Corpus)
		}
		printStatus("Source", "%s", r.Source)
		printStatus("Output", "%s", r.Output)
		printStatus("Started", "%s", r.StartedAt.Local().Format(time.RFC3339))
		if !r.FinishedAt.IsZero() {
			printStatus("Duration", "%s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		}
		printStatus("Total", "%d", r.Counts.Total)
		printStatus("Extracted", "%d", r.Counts.Extracted)
		if r.Kind == storage.KindExtract {
			printStatus("Missing", "%d", r.Counts.Missing)
			printStatus("Encoding", "%d", r.Counts.Encoding)
			printStatus("Unsupported", "%d", r.Counts.Unsupported)
		}
		for _, c := range r.RejectedCharsets {
			printStatus("  "+c.Charset, "%d", c.Count)
		}
		if r.Error != "" {
			printStatus("Error", "%s", colorize(colorRed, r.Error))
		}
		return nil
	},
}

func statusText(status string) string {
	switch status {
	case storage.StatusCompleted:
		return colorize(colorGreen, status)
	case storage.StatusFailed:
		return colorize(colorRed, status)
	}
	return colorize(colorYellow, status)
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and modify configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "%-24s %-32s (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("%s = %s", args[0], args[1])
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("%s restored to default", args[0])
		return nil
	},
	ValidArgs: config.ValidKeys(),
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd)
}

// --- helpers ---

func openStore() (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.DataDir)
}

// newEnv opens the run ledger and builds the pipeline environment. The
// caller closes the store.
func newEnv(cfg config.Config) (*pipeline.Env, *storage.Store, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run ledger: %w", err)
	}
	env, err := pipeline.NewEnv(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return env, store, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
