// Package pipeline wires the stages together: clean → load → analyze, plus
// classifier training and chart rendering. Each stage takes its inputs from
// an explicit Config, returns a typed result and reports progress to a Sink.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/claimvision-cli/internal/analysis"
	"github.com/KaramelBytes/claimvision-cli/internal/chart"
	"github.com/KaramelBytes/claimvision-cli/internal/clean"
	"github.com/KaramelBytes/claimvision-cli/internal/config"
	"github.com/KaramelBytes/claimvision-cli/internal/kpi"
	"github.com/KaramelBytes/claimvision-cli/internal/model"
	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/store"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// Config holds every path, name and threshold the stages use.
type Config struct {
	RawPath      string
	CleanedPath  string
	DataDir      string
	DatabasePath string
	Driver       string
	Table        string

	TargetColumn  string
	CostColumn    string
	AgeColumn     string
	CostThreshold float64
	StrictLabels  bool

	ModelPath string
	ChartDir  string
	Trees     int
	MaxDepth  int
	TestRatio float64
	Seed      int64
}

// FromGlobal maps the loaded configuration onto a pipeline Config.
func FromGlobal(g *config.Global) Config {
	return Config{
		RawPath:       g.RawDataPath,
		CleanedPath:   g.CleanedDataPath,
		DataDir:       g.DataDir,
		DatabasePath:  g.DatabasePath,
		Driver:        g.DBDriver,
		Table:         g.TableName,
		TargetColumn:  g.TargetColumn,
		CostColumn:    g.CostColumn,
		AgeColumn:     g.AgeColumn,
		CostThreshold: g.AnomalyThreshold,
		StrictLabels:  g.StrictLabels,
		ModelPath:     g.ModelPath,
		ChartDir:      g.ChartDir,
		Trees:         g.Trees,
		MaxDepth:      g.MaxDepth,
		TestRatio:     g.TestRatio,
		Seed:          g.Seed,
	}
}

func (c Config) cleanOptions() clean.Options {
	return clean.Options{TargetColumn: c.TargetColumn, Strict: c.StrictLabels}
}

func (c Config) kpiOptions() kpi.Options {
	return kpi.Options{
		Table:         c.Table,
		TargetColumn:  c.TargetColumn,
		AgeColumn:     c.AgeColumn,
		CostColumn:    c.CostColumn,
		CostThreshold: c.CostThreshold,
		OutputDir:     c.DataDir,
	}
}

// Pipeline runs stages against one Config. It holds no open resources
// between calls.
type Pipeline struct {
	cfg   Config
	sink  Sink
	runID string
	now   func() time.Time
}

// New returns a pipeline reporting to sink. A nil sink discards events.
func New(cfg Config, sink Sink) *Pipeline {
	if sink == nil {
		sink = Multi(nil)
	}
	return &Pipeline{cfg: cfg, sink: sink, runID: uuid.NewString(), now: time.Now}
}

// RunID identifies this pipeline's events and artifacts.
func (p *Pipeline) RunID() string { return p.runID }

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

func (p *Pipeline) emit(stage string, lvl Level, msg string, counts map[string]int, d time.Duration) {
	p.sink.Emit(Event{RunID: p.runID, Stage: stage, Level: lvl, Msg: msg, Counts: counts, Duration: d})
}

// CleanResult is the outcome of the clean stage.
type CleanResult struct {
	Path      string
	Clean     clean.Report
	Normalize clean.NormalizeReport
	Table     *table.Table
}

// Inspect loads the raw file and summarizes it without changing anything.
func (p *Pipeline) Inspect(opt analysis.Options) (*analysis.Report, error) {
	start := p.now()
	raw, err := table.LoadCSV(p.cfg.RawPath)
	if err != nil {
		return nil, err
	}
	rep := analysis.Inspect(raw, opt)
	p.emit(StageLoad, LevelInfo, "inspected raw data", map[string]int{"rows": rep.Rows, "columns": len(rep.Cols)}, p.now().Sub(start))
	return rep, nil
}

// Clean loads the raw file, drops rows without a target, imputes numeric
// medians, encodes categories, maps codes to labels and writes the labeled
// table to CleanedPath.
func (p *Pipeline) Clean() (*CleanResult, error) {
	start := p.now()
	raw, err := table.LoadCSV(p.cfg.RawPath)
	if err != nil {
		return nil, err
	}
	p.emit(StageLoad, LevelInfo, "loaded raw data", map[string]int{"rows": len(raw.Rows), "columns": len(raw.Columns)}, p.now().Sub(start))

	start = p.now()
	opt := p.cfg.cleanOptions()
	cleaned, crep, err := clean.Clean(raw, opt)
	if err != nil {
		return nil, err
	}
	if !crep.TargetPresent {
		p.emit(StageClean, LevelWarn, fmt.Sprintf("target column %s not found; no rows dropped", p.cfg.TargetColumn), nil, 0)
	}
	counts := map[string]int{"rows_in": crep.InputRows, "rows_out": crep.OutputRows, "dropped": crep.Dropped}
	for col, n := range crep.Filled {
		counts["filled_"+col] = n
	}
	for col, n := range crep.Unmapped {
		counts["unmapped_"+col] = n
	}
	p.emit(StageClean, LevelInfo, "cleaned records", counts, p.now().Sub(start))

	start = p.now()
	labeled, nrep, err := clean.Normalize(cleaned, opt)
	if err != nil {
		return nil, err
	}
	if len(nrep.Skipped) > 0 {
		p.emit(StageLabel, LevelWarn, "columns absent, labels skipped: "+strings.Join(nrep.Skipped, ", "), nil, 0)
	}
	ncounts := map[string]int{"labeled_columns": len(nrep.Labeled)}
	for col, n := range nrep.Unmapped {
		ncounts["unmapped_"+col] = n
	}
	if err := labeled.SaveCSV(p.cfg.CleanedPath); err != nil {
		return nil, fmt.Errorf("save cleaned data: %w", err)
	}
	p.emit(StageLabel, LevelInfo, "wrote labeled data to "+p.cfg.CleanedPath, ncounts, p.now().Sub(start))
	return &CleanResult{Path: p.cfg.CleanedPath, Clean: crep, Normalize: nrep, Table: labeled}, nil
}

// LoadResult is the outcome of the load stage.
type LoadResult struct {
	DatabasePath string
	Table        string
	Rows         int
}

// Load replaces the stored table with the labeled file at CleanedPath.
func (p *Pipeline) Load(ctx context.Context) (*LoadResult, error) {
	s, err := p.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return p.load(ctx, s)
}

func (p *Pipeline) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, p.cfg.Driver, p.cfg.DatabasePath)
}

func (p *Pipeline) load(ctx context.Context, s *store.Store) (*LoadResult, error) {
	start := p.now()
	labeled, err := table.LoadCSV(p.cfg.CleanedPath)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(ctx, p.cfg.Table, labeled); err != nil {
		return nil, err
	}
	n, err := s.Count(ctx, p.cfg.Table)
	if err != nil {
		return nil, err
	}
	p.emit(StageStore, LevelInfo, fmt.Sprintf("replaced table %s", p.cfg.Table), map[string]int{"rows": n}, p.now().Sub(start))
	return &LoadResult{DatabasePath: p.cfg.DatabasePath, Table: p.cfg.Table, Rows: n}, nil
}

// AnalyzeResult is the outcome of the analyze stage.
type AnalyzeResult struct {
	KPIs      []*kpi.Result
	Anomalies *kpi.Result
}

// Analyze computes and exports the KPI files and the high-cost anomaly file.
func (p *Pipeline) Analyze(ctx context.Context) (*AnalyzeResult, error) {
	s, err := p.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return p.analyze(ctx, s)
}

func (p *Pipeline) analyze(ctx context.Context, s *store.Store) (*AnalyzeResult, error) {
	a := kpi.NewAnalyzer(s, p.cfg.kpiOptions())

	start := p.now()
	results, err := a.KPIs(ctx)
	if err != nil {
		return nil, err
	}
	p.emit(StageKPI, LevelInfo, fmt.Sprintf("exported %d KPI files", len(results)), map[string]int{"files": len(results)}, p.now().Sub(start))

	start = p.now()
	anomalies, err := a.DetectAnomalies(ctx)
	if err != nil {
		return nil, err
	}
	if anomalies.Skipped {
		p.emit(StageAnomaly, LevelWarn, fmt.Sprintf("column %s not found; anomaly detection skipped", p.cfg.CostColumn), nil, 0)
	} else {
		p.emit(StageAnomaly, LevelInfo, "exported high-cost records", map[string]int{"flagged": len(anomalies.Rows)}, p.now().Sub(start))
	}
	return &AnalyzeResult{KPIs: results, Anomalies: anomalies}, nil
}

// TrainResult is the outcome of the train stage.
type TrainResult struct {
	Artifact *model.Artifact
	Path     string
}

// Train fits the classifier on the labeled file, evaluates it on a stratified
// hold-out set and writes the artifact to ModelPath.
func (p *Pipeline) Train() (*TrainResult, error) {
	start := p.now()
	labeled, err := table.LoadCSV(p.cfg.CleanedPath)
	if err != nil {
		return nil, err
	}
	ds, err := model.BuildDataset(labeled, schema.FeatureColumns, p.cfg.cleanOptions())
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	split, err := model.StratifiedSplit(ds.Y, p.cfg.TestRatio, p.cfg.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := model.Rows(ds.X, ds.Y, split.Train)
	xTest, yTest := model.Rows(ds.X, ds.Y, split.Test)

	forest := model.NewForest(
		model.WithEstimators(p.cfg.Trees),
		model.WithMaxDepth(p.cfg.MaxDepth),
		model.WithSeed(p.cfg.Seed),
	)
	if err := forest.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	metrics := model.Evaluate(yTest, forest.Predict(xTest), forest.Classes)

	art := &model.Artifact{
		Features:  ds.Features,
		Target:    p.cfg.TargetColumn,
		Forest:    forest,
		Metrics:   metrics,
		TrainedAt: p.now().UTC(),
		RunID:     p.runID,
	}
	if err := art.Save(p.cfg.ModelPath); err != nil {
		return nil, err
	}
	p.emit(StageTrain, LevelInfo, fmt.Sprintf("trained classifier (accuracy %.4f)", metrics.Accuracy),
		map[string]int{"train_rows": len(yTrain), "test_rows": len(yTest), "trees": len(forest.Trees), "skipped_rows": ds.Skipped},
		p.now().Sub(start))
	return &TrainResult{Artifact: art, Path: p.cfg.ModelPath}, nil
}

// Charts renders the KPI bar charts into ChartDir.
func (p *Pipeline) Charts() ([]chart.Result, error) {
	start := p.now()
	results, err := chart.RenderAll(chart.Defaults, p.cfg.DataDir, p.cfg.ChartDir)
	if err != nil {
		return results, err
	}
	rendered := 0
	for _, r := range results {
		if r.Skipped {
			p.emit(StageChart, LevelWarn, "chart skipped: "+r.Reason, nil, 0)
			continue
		}
		rendered++
	}
	p.emit(StageChart, LevelInfo, "rendered charts", map[string]int{"charts": rendered}, p.now().Sub(start))
	return results, nil
}

// RunOptions selects the optional stages of Run.
type RunOptions struct {
	Charts bool
	Train  bool
}

// RunResult gathers the results of every stage Run executed.
type RunResult struct {
	RunID   string
	Clean   *CleanResult
	Load    *LoadResult
	Analyze *AnalyzeResult
	Train   *TrainResult
	Charts  []chart.Result
}

// Run executes clean, load and analyze in order, then the optional stages.
// One store handle serves load and analyze and is closed before the optional
// stages start. The first failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context, opt RunOptions) (*RunResult, error) {
	res := &RunResult{RunID: p.runID}
	var err error
	if res.Clean, err = p.Clean(); err != nil {
		return res, fmt.Errorf("clean: %w", err)
	}
	if err = p.runStored(ctx, res); err != nil {
		return res, err
	}
	if opt.Train {
		if res.Train, err = p.Train(); err != nil {
			return res, fmt.Errorf("train: %w", err)
		}
	}
	if opt.Charts {
		if res.Charts, err = p.Charts(); err != nil {
			return res, fmt.Errorf("charts: %w", err)
		}
	}
	return res, nil
}

func (p *Pipeline) runStored(ctx context.Context, res *RunResult) error {
	s, err := p.openStore(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer s.Close()
	if res.Load, err = p.load(ctx, s); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if res.Analyze, err = p.analyze(ctx, s); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}
