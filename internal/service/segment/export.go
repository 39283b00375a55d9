// internal/service/segment/export.go
package segment

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ecommerce-analytics/internal/domain/feature"
	"ecommerce-analytics/internal/domain/segment"
)

// exportResultsCSV writes one row per segmented customer: the feature
// vector used and the assigned label.
func exportResultsCSV(dir string, assignments []segment.Assignment) (string, error) {
	path := timestampedFilename(dir, "segmentation_results")

	records := make([][]string, 0, len(assignments)+1)
	header := append([]string{"customer_unique_id"}, feature.Columns...)
	records = append(records, append(header, "segment"))

	for _, a := range assignments {
		row := make([]string, 0, len(a.Features)+2)
		row = append(row, a.CustomerUniqueID)
		for _, v := range a.Features {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		row = append(row, strconv.Itoa(a.Segment))
		records = append(records, row)
	}

	return path, writeCSV(path, records)
}

// exportMetricsCSV writes the single quality-metrics row for a run.
func exportMetricsCSV(dir string, m segment.RunMetrics) (string, error) {
	path := timestampedFilename(dir, "segmentation_metrics")

	records := [][]string{
		{"run_id", "cluster_count", "seed", "silhouette", "calinski_harabasz", "davies_bouldin", "computed_at"},
		{
			m.RunID,
			strconv.Itoa(m.ClusterCount),
			strconv.FormatInt(m.Seed, 10),
			strconv.FormatFloat(m.Silhouette, 'f', -1, 64),
			strconv.FormatFloat(m.CalinskiHarabasz, 'f', -1, 64),
			strconv.FormatFloat(m.DaviesBouldin, 'f', -1, 64),
			m.ComputedAt.Format(time.RFC3339),
		},
	}

	return path, writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	// Make sure the folder exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func timestampedFilename(baseDir, name string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.csv", name, t))
}
