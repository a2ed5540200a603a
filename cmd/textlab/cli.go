package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/testutils"
)

const trainReportTemplate = `Trained {{ .Artifact.Algorithm }} ({{ .Artifact.Representation }}) for task {{ .Artifact.TaskID }}
dataset:        {{ .Artifact.DatasetName }}, {{ .TrainSize }} train / {{ .TestSize }} test records
hyperparameter: {{ .Artifact.Hyperparameter }}
accuracy:       {{ printf "%.4f" .Artifact.Metrics.Accuracy }}
labels:         {{ join ", " .Artifact.Metrics.Labels }}
model id:       {{ .Artifact.ID }}
{{- if .Artifact.Metrics.TopFeatures }}
top features:
{{- range .Artifact.Metrics.TopFeatures }}
  {{ printf "%-24s %.4f" .Feature .Importance }}
{{- end }}
{{- end }}
confusion matrix (rows are actual labels):
{{ .Matrix }}`

const predictionTemplate = `{{ .TaskID }}/{{ .Algorithm }}: {{ .Label }}
{{- if ne .Label .RawLabel }} (raw {{ .RawLabel }}){{ end }}
{{- with .Confidence }} confidence {{ printf "%.3f" (float64 .) }}{{ end }}
`

const compareTemplate = `Comparison for task {{ .TaskID }}
{{- range .Entries }}
  {{ printf "%-20s" .Algorithm }} {{ if .Trained }}accuracy {{ printf "%.4f" .Accuracy }}  -> {{ .Prediction }}{{ else }}not trained{{ end }}
{{- end }}
best: {{ .Best }}
`

type trainReport struct {
	Artifact  *models.ModelArtifact
	TrainSize string
	TestSize  string
	Matrix    string
}

// loadCLIConfig loads config for one-shot commands. The server flags are honored too.
func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	handleCLIOptions(cfg)
	config.SetLogLevel(cfg)
	return cfg, nil
}

func newCLIAppState(ctx context.Context) (*models.AppState, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	return NewAppState(ctx, cfg)
}

func runTrain(ctx context.Context, out io.Writer) error {
	appState, err := newCLIAppState(ctx)
	if err != nil {
		return err
	}
	defer closeAppState(appState)

	task, err := appState.Catalog.Lookup(taskID)
	if err != nil {
		return err
	}
	algorithm, err := models.ParseAlgorithm(trainAlgorithm)
	if err != nil {
		return err
	}
	method, err := models.ParseRepresentationMethod(representation)
	if err != nil {
		return err
	}
	normalization, err := models.NormalizationOptionsFromMap(
		models.DefaultNormalizationOptions(),
		boolMap(appState.Config.Normalization),
	)
	if err != nil {
		return err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer f.Close()
	ds, err := dataset.Load(f, filepath.Base(dataPath), "")
	if err != nil {
		return err
	}
	stats := ds.Stats()
	log.Infof(
		"Loaded %s: %s records, %s labeled",
		ds.Name,
		humanize.Comma(int64(stats.TotalCount)),
		humanize.Comma(int64(stats.LabeledCount)),
	)

	var hp *float64
	if trainCmd.Flags().Changed("hyperparameter") {
		hp = &hyperparameter
	}
	artifact, err := appState.Trainer.Train(ctx, ds, models.TrainRequest{
		TaskID:         task.ID,
		Algorithm:      algorithm,
		Representation: method,
		Hyperparameter: hp,
		Normalization:  normalization,
	})
	if err != nil {
		return err
	}
	if err := appState.ArtifactStore.Save(ctx, artifact); err != nil {
		return err
	}
	if activate {
		if err := appState.ArtifactStore.SetActive(ctx, task.ID, algorithm); err != nil {
			return err
		}
	}

	report, err := internal.RenderTemplate("train", trainReportTemplate, trainReport{
		Artifact:  artifact,
		TrainSize: humanize.Comma(int64(artifact.Metrics.TrainSize)),
		TestSize:  humanize.Comma(int64(artifact.Metrics.TestSize)),
		Matrix:    formatConfusionMatrix(artifact.Metrics),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, report)
	return err
}

func runPredict(ctx context.Context, out io.Writer, text string) error {
	appState, err := newCLIAppState(ctx)
	if err != nil {
		return err
	}
	defer closeAppState(appState)

	var prediction *models.Prediction
	if algorithmName == "" {
		prediction, err = appState.Inference.Predict(ctx, taskID, text)
	} else {
		prediction, err = appState.Inference.PredictWith(ctx, taskID, models.Algorithm(algorithmName), text)
	}
	if err != nil {
		return err
	}

	rendered, err := internal.RenderTemplate("predict", predictionTemplate, prediction)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func runCompare(ctx context.Context, out io.Writer, text string) error {
	appState, err := newCLIAppState(ctx)
	if err != nil {
		return err
	}
	defer closeAppState(appState)

	candidates := make([]models.Algorithm, len(algorithmNames))
	for i, name := range algorithmNames {
		candidates[i] = models.Algorithm(name)
	}
	comparison, err := appState.Inference.Compare(ctx, taskID, text, candidates)
	if err != nil {
		return err
	}

	rendered, err := internal.RenderTemplate("compare", compareTemplate, comparison)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func runListModels(ctx context.Context, out io.Writer) error {
	appState, err := newCLIAppState(ctx)
	if err != nil {
		return err
	}
	defer closeAppState(appState)

	task, err := appState.Catalog.Lookup(taskID)
	if err != nil {
		return err
	}
	summaries, err := appState.ArtifactStore.List(ctx, task.ID)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		_, err = fmt.Fprintf(out, "No models trained for task %s\n", task.ID)
		return err
	}
	for _, s := range summaries {
		marker := " "
		if s.Active {
			marker = "*"
		}
		_, err = fmt.Fprintf(
			out,
			"%s %-20s %-20s accuracy %.4f  trained %s  %s\n",
			marker,
			s.Algorithm,
			s.Representation,
			s.Accuracy,
			humanize.Time(s.TrainedAt),
			humanize.Bytes(uint64(s.SizeBytes)),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// createFixtures writes a synthetic labeled CSV and returns its path.
func createFixtures(outputDir string, count int, labels []string, seed int64) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("fixtures_%d.csv", count))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	records := testutils.GenerateCorpus(count, labels, seed)
	if err := dataset.WriteCSV(f, records); err != nil {
		return "", err
	}
	return path, nil
}

func formatConfusionMatrix(report models.EvaluationReport) string {
	var sb strings.Builder
	width := 8
	for _, l := range report.Labels {
		if len(l) > width {
			width = len(l)
		}
	}
	fmt.Fprintf(&sb, "  %*s", width, "")
	for _, l := range report.Labels {
		fmt.Fprintf(&sb, " %*s", width, l)
	}
	for i, row := range report.ConfusionMatrix {
		fmt.Fprintf(&sb, "\n  %*s", width, report.Labels[i])
		for _, n := range row {
			fmt.Fprintf(&sb, " %*d", width, n)
		}
	}
	return sb.String()
}

func boolMap(m map[string]bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
