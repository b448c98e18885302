package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/encode"
	"github.com/cyclopcam/trackbench/pkg/eval"
	"github.com/cyclopcam/trackbench/pkg/report"
	"github.com/cyclopcam/trackbench/pkg/track"
	"github.com/cyclopcam/trackbench/pkg/trackdb"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("trackbench", "Export a tracking run in benchmark format and evaluate it")
	dbPath := parser.String("d", "db", &argparse.Options{Help: "Tracking run database (sqlite)", Required: true})
	format := parser.String("f", "format", &argparse.Options{Help: "Output format: " + strings.Join(encode.Formats(), ", "), Required: false, Default: encode.FormatGameState})
	split := parser.String("s", "split", &argparse.Options{Help: "Dataset split being evaluated", Required: false, Default: "test"})
	trackersFolder := parser.String("", "trackers", &argparse.Options{Help: "Root folder for written predictions", Required: false, Default: "eval/trackers"})
	gtFolder := parser.String("", "gt", &argparse.Options{Help: "Root folder for written ground truth", Required: false, Default: "eval/gt"})
	datasetPath := parser.String("", "dataset", &argparse.Options{Help: "Root of pre-existing reference labels (skips ground-truth export)", Required: false, Default: ""})
	metrics := parser.String("m", "metrics", &argparse.Options{Help: "Comma-separated list of metric names", Required: false, Default: "HOTA,CLEAR,Identity"})
	bboxColumn := parser.String("b", "bbox", &argparse.Options{Help: "Bbox column to evaluate", Required: false, Default: track.ColumnBboxLTWH})
	exportOnly := parser.Flag("", "export-only", &argparse.Options{Help: "Write the benchmark files, skip the evaluation", Required: false})
	byVideo := parser.Flag("", "by-video", &argparse.Options{Help: "Also print per-sequence results", Required: false})
	progress := parser.Flag("", "progress", &argparse.Options{Help: "Show progress while writing sequences", Required: false})
	python := parser.String("", "python", &argparse.Options{Help: "Python interpreter for the scoring engine", Required: false, Default: "python3"})
	script := parser.String("", "script", &argparse.Options{Help: "TrackEval runner script", Required: false, Default: "scripts/run_trackeval.py"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	db, err := trackdb.NewTrackDB(logger, *dbPath)
	check(err)
	state, err := db.LoadTrackerState()
	check(err)

	cfg := &eval.Config{
		Format:          *format,
		EvalSet:         *split,
		Metrics:         strings.Split(*metrics, ","),
		BboxColumn:      *bboxColumn,
		TrackersFolder:  *trackersFolder,
		GTFolder:        *gtFolder,
		DatasetPath:     *datasetPath,
		ShowProgress:    *progress,
		PrintBySequence: *byVideo,
	}
	if *datasetPath != "" {
		cfg.GroundTruth = eval.GroundTruthReference
	}

	if *exportOnly {
		enc, err := encode.Lookup(cfg.Format)
		check(err)
		opts := encode.SaveOptions{
			BboxColumn:   cfg.BboxColumn,
			SaveClasses:  cfg.Format != encode.FormatMOTChallenge,
			Zip:          cfg.Format == encode.FormatGameState,
			ShowProgress: cfg.ShowProgress,
		}
		// Same layout Run uses, so a later evaluation finds these files
		outDir := cfg.PredictionsDir()
		check(enc.Save(logger, state.Predictions, state.Frames, state.Sequences, outDir, opts))
		logger.Infof("Tracking predictions saved in %v format in %v", cfg.Format, outDir)
		return
	}

	engine := eval.NewTrackEval(logger, *python, *script)
	evaluator := eval.NewEvaluator(logger, cfg, engine, &report.LogSink{Log: logger})
	_, err = evaluator.Run(state)
	check(err)
}
