package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/nutrition"
	"mathly/internal/storage/storagedb"
)

// SaveBMIRecord stores a BMI measurement.
func (s *Store) SaveBMIRecord(ctx context.Context, rec health.BMIRecord) error {
	err := s.queries.InsertBMIRecord(ctx, storagedb.InsertBMIRecordParams{
		ID:        rec.ID,
		HeightCm:  rec.HeightCm,
		WeightKg:  rec.WeightKg,
		Bmi:       rec.BMI,
		Category:  string(rec.Category),
		CreatedAt: toMillis(rec.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to insert bmi record %s: %w", rec.ID, err)
	}
	return nil
}

// RecentBMIRecords lists BMI measurements newest first.
func (s *Store) RecentBMIRecords(ctx context.Context, limit int) ([]health.BMIRecord, error) {
	rows, err := s.queries.ListRecentBMIRecords(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bmi records: %w", err)
	}

	records := make([]health.BMIRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, health.BMIRecord{
			ID:        row.ID,
			HeightCm:  row.HeightCm,
			WeightKg:  row.WeightKg,
			BMI:       row.Bmi,
			Category:  health.Category(row.Category),
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return records, nil
}

// SaveGraph stores a plotted function.
func (s *Store) SaveGraph(ctx context.Context, g graph.Graph) error {
	err := s.queries.InsertGraph(ctx, storagedb.InsertGraphParams{
		ID:         g.ID,
		Expression: g.Expression,
		XMin:       g.XMin,
		XMax:       g.XMax,
		CreatedAt:  toMillis(g.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to insert graph %s: %w", g.ID, err)
	}
	return nil
}

// Graph returns the graph with the given id.
func (s *Store) Graph(ctx context.Context, id string) (graph.Graph, error) {
	row, err := s.queries.GetGraph(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return graph.Graph{}, fmt.Errorf("graph %s: %w", id, ErrNotFound)
		}
		return graph.Graph{}, fmt.Errorf("failed to get graph %s: %w", id, err)
	}
	return graphFromRow(row), nil
}

// RecentGraphs lists graphs newest first.
func (s *Store) RecentGraphs(ctx context.Context, limit int) ([]graph.Graph, error) {
	rows, err := s.queries.ListRecentGraphs(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	graphs := make([]graph.Graph, 0, len(rows))
	for _, row := range rows {
		graphs = append(graphs, graphFromRow(row))
	}
	return graphs, nil
}

func graphFromRow(row storagedb.Graph) graph.Graph {
	return graph.Graph{
		ID:         row.ID,
		Expression: row.Expression,
		XMin:       row.XMin,
		XMax:       row.XMax,
		CreatedAt:  fromMillis(row.CreatedAt),
	}
}

// SaveCaloriesAnalysis stores an analysis. The food items and exercises are
// encoded as two separate JSON strings.
func (s *Store) SaveCaloriesAnalysis(ctx context.Context, a nutrition.CaloriesAnalysis) error {
	breakdown, err := marshalList(a.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal food items: %w", err)
	}
	exercises, err := marshalList(a.Exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}

	err = s.queries.InsertCaloriesAnalysis(ctx, storagedb.InsertCaloriesAnalysisParams{
		ID:              a.ID,
		FoodDescription: a.FoodDescription,
		Breakdown:       breakdown,
		TotalCalories:   a.TotalCalories,
		Exercises:       exercises,
		CreatedAt:       toMillis(a.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to insert calories analysis %s: %w", a.ID, err)
	}
	return nil
}

// RecentCaloriesAnalyses lists analyses newest first.
func (s *Store) RecentCaloriesAnalyses(ctx context.Context, limit int) ([]nutrition.CaloriesAnalysis, error) {
	rows, err := s.queries.ListRecentCaloriesAnalyses(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list calories analyses: %w", err)
	}

	analyses := make([]nutrition.CaloriesAnalysis, 0, len(rows))
	for _, row := range rows {
		a := nutrition.CaloriesAnalysis{
			ID:              row.ID,
			FoodDescription: row.FoodDescription,
			TotalCalories:   row.TotalCalories,
			CreatedAt:       fromMillis(row.CreatedAt),
		}
		if err := json.Unmarshal([]byte(row.Breakdown), &a.Breakdown); err != nil {
			return nil, &CorruptRecordError{Table: "calories_analyses", ID: row.ID, Err: err}
		}
		if err := json.Unmarshal([]byte(row.Exercises), &a.Exercises); err != nil {
			return nil, &CorruptRecordError{Table: "calories_analyses", ID: row.ID, Err: err}
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
