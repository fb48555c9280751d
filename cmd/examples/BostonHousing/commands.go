package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"

	"bostonhousing/internal/config"
	"bostonhousing/pkg/datasets"
	"bostonhousing/pkg/housing"
	"bostonhousing/pkg/loader"
	"bostonhousing/pkg/model"
	"bostonhousing/pkg/pipeline"
	"bostonhousing/pkg/selection"
	"bostonhousing/pkg/stats"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

// runner carries the resolved configuration into the command actions.
type runner struct {
	cfg config.Config
}

func (r *runner) datasetOptions() []datasets.Option {
	return []datasets.Option{
		datasets.WithDataHome(r.cfg.DataHome),
		datasets.WithDownload(r.cfg.Download),
		datasets.WithSourceURL(r.cfg.SourceURL),
		datasets.WithTimeout(r.cfg.Timeout),
	}
}

func (r *runner) load() (housing.HousingData, error) {
	data, err := housing.LoadFrom(datasets.Boston(r.datasetOptions()...))
	if err != nil {
		return housing.HousingData{}, fmt.Errorf("load housing data: %w", err)
	}
	log.Info().Int("rows", len(data.Prices)).Int("features", len(data.Names)).Msg("housing data loaded")
	return data, nil
}

func (r *runner) fetch(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()
	path, err := datasets.DownloadBoston(ctx, r.datasetOptions()...)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func (r *runner) describe(c *cli.Context) error {
	data, err := r.load()
	if err != nil {
		return err
	}
	s, err := stats.Describe(data.Prices)
	if err != nil {
		return err
	}
	fmt.Println("Statistics for Boston housing prices ($1000s):")
	fmt.Printf("  count   %d\n", s.Count)
	fmt.Printf("  minimum %.2f\n", s.Min)
	fmt.Printf("  maximum %.2f\n", s.Max)
	fmt.Printf("  mean    %.2f\n", s.Mean)
	fmt.Printf("  median  %.2f\n", s.Median)
	fmt.Printf("  std     %.2f\n", s.Std)
	fmt.Printf("  q1/q3   %.2f / %.2f\n", s.Q1, s.Q3)

	corr, err := stats.FeatureCorrelations(data.Features, data.Prices, data.Names)
	if err != nil {
		return err
	}
	fmt.Println("\nCorrelation with price:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, fc := range corr {
		fmt.Fprintf(w, "  %s\t%+.3f\n", fc.Name, fc.R)
	}
	return w.Flush()
}

// columns names the feature columns to log-scale and to keep, in that order
// of application.
type columns struct {
	log  []string
	keep []string
}

func (r *runner) steps(names []string, cols columns) ([]pipeline.Transformer, error) {
	var steps []pipeline.Transformer
	if len(cols.log) > 0 {
		lg, err := pipeline.Log1pByName(names, cols.log...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, lg)
	}
	if len(cols.keep) > 0 {
		sel, err := pipeline.SelectByName(names, cols.keep...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, sel)
	}
	return steps, nil
}

// builder returns the model family named by kind, parameterised by an int:
// the maximum depth for trees, k for neighbours and the epoch count for
// gradient descent. Least squares ignores the parameter.
func (r *runner) builder(kind string, names []string, cols columns) (selection.Builder, []int, error) {
	steps, err := r.steps(names, cols)
	if err != nil {
		return nil, nil, err
	}
	// scaled returns a fresh step list ending in a new scaler
	scaled := func() []pipeline.Transformer {
		return append(append([]pipeline.Transformer(nil), steps...), stats.NewStandardScaler())
	}
	switch kind {
	case "tree":
		return func(depth int) model.Regressor {
			return pipeline.New(model.NewDecisionTreeRegressor(
				model.WithMaxDepth(depth),
				model.WithRandomState(r.cfg.Seed),
			), steps...)
		}, r.cfg.Depths(), nil
	case "knn":
		params := make([]int, r.cfg.Neighbors)
		for i := range params {
			params[i] = i + 1
		}
		return func(k int) model.Regressor {
			return pipeline.New(model.NewKNNRegressor(k), scaled()...)
		}, params, nil
	case "linear":
		return func(int) model.Regressor {
			return pipeline.New(&model.LinearRegression{}, steps...)
		}, []int{0}, nil
	case "sgd":
		return func(epochs int) model.Regressor {
			m := model.NewSGDRegressor(r.cfg.LearningRate, epochs, r.cfg.BatchSize)
			m.Seed = r.cfg.Seed
			return pipeline.New(m, scaled()...)
		}, []int{25, 50, 100, 200}, nil
	default:
		return nil, nil, fmt.Errorf("unknown model %q (want tree, knn, linear or sgd)", kind)
	}
}

// folds partitions n training rows by the configured scheme.
func (r *runner) folds(n int, rnd *rand.Rand) ([]loader.Fold, error) {
	if r.cfg.CV == config.CVKFold {
		return loader.KFold(n, r.cfg.CVSplits, rnd)
	}
	return loader.ShuffleSplit(n, r.cfg.CVSplits, r.cfg.TestRatio, rnd)
}

type selected struct {
	model  model.Regressor
	result selection.Result
	build  selection.Builder
	folds  []loader.Fold
	XTrain [][]float64
	yTrain []float64
	XTest  [][]float64
	yTest  []float64
}

// selectModel splits off a test set, cross-validates the hyperparameter
// grid on the training rows and refits the best model on all of them.
func (r *runner) selectModel(c *cli.Context, data housing.HousingData) (*selected, error) {
	cols := columns{log: nameList(c, optionLog), keep: nameList(c, optionFeatures)}
	build, params, err := r.builder(c.String(optionModel), data.Names, cols)
	if err != nil {
		return nil, err
	}
	rnd := rand.New(rand.NewSource(r.cfg.Seed))
	XTrain, XTest, yTrain, yTest, err := loader.TrainTestSplit(data.Features, data.Prices, r.cfg.TestRatio, rnd)
	if err != nil {
		return nil, err
	}
	folds, err := r.folds(len(XTrain), rnd)
	if err != nil {
		return nil, err
	}
	res, err := selection.GridSearch(build, params, XTrain, yTrain, folds)
	if err != nil {
		return nil, err
	}
	m := build(res.Best.Param)
	if err := m.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}
	log.Info().Str("model", c.String(optionModel)).Str("cv", r.cfg.CV).Int("param", res.Best.Param).Float64("cv_r2", res.Best.ValidR2).Msg("model selected")
	return &selected{
		model: m, result: res, build: build, folds: folds,
		XTrain: XTrain, yTrain: yTrain, XTest: XTest, yTest: yTest,
	}, nil
}

// nameList splits a comma-separated column flag.
func nameList(c *cli.Context, flag string) []string {
	raw := strings.TrimSpace(c.String(flag))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (r *runner) fit(c *cli.Context) error {
	data, err := r.load()
	if err != nil {
		return err
	}
	sel, err := r.selectModel(c, data)
	if err != nil {
		return err
	}

	fmt.Printf("Training rows: %d, testing rows: %d, folds: %d\n\n", len(sel.XTrain), len(sel.XTest), len(sel.folds))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "param\ttrain R²\tvalid R²\t± std")
	for _, s := range sel.result.Scores {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\n", s.Param, s.TrainR2, s.ValidR2, s.ValidR2Std)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pred, err := sel.model.Predict(sel.XTest)
	if err != nil {
		return err
	}
	fmt.Printf("\nBest param %d\n", sel.result.Best.Param)
	fmt.Printf("Test R² %.4f, RMSE %.3f, MAE %.3f\n",
		model.R2(sel.yTest, pred), model.RMSE(sel.yTest, pred), model.MAE(sel.yTest, pred))

	if !c.Bool(optionCurve) {
		return nil
	}
	sizes := learningSizes(len(sel.folds[0].Train))
	build := func() model.Regressor { return sel.build(sel.result.Best.Param) }
	points, err := selection.LearningCurve(build, sizes, sel.XTrain, sel.yTrain, sel.folds)
	if err != nil {
		return err
	}
	fmt.Println("\nLearning curve:")
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "rows\ttrain R²\tvalid R²")
	for _, p := range points {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\n", p.Size, p.TrainR2, p.ValidR2)
	}
	return w.Flush()
}

// learningSizes spreads ten training sizes over [limit/10, limit].
func learningSizes(limit int) []int {
	var sizes []int
	for i := 1; i <= 10; i++ {
		n := limit * i / 10
		if n < 2 || (len(sizes) > 0 && sizes[len(sizes)-1] == n) {
			continue
		}
		sizes = append(sizes, n)
	}
	return sizes
}

func (r *runner) predict(c *cli.Context) error {
	data, err := r.load()
	if err != nil {
		return err
	}
	sel, err := r.selectModel(c, data)
	if err != nil {
		return err
	}
	clients := housing.ClientFeatures()
	prices, err := sel.model.Predict(clients)
	if err != nil {
		return err
	}
	for i, p := range prices {
		fmt.Printf("Predicted selling price for client %d: $%.2f\n", i+1, p*1000)
	}
	return nil
}
