package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signbridge/internal/logging"
	"signbridge/internal/pipeline"
)

const runColumns = "id, stage, source_file, detected_language, transcript, words_json, translation_json, translated_text, model, video_json, saved_url, error_stage, error_message, error_retryable, progress_message, progress_percent, created_at, updated_at"

// Upsert writes a run snapshot, inserting on first sight and replacing the
// stored snapshot on every later mutation.
func (s *Store) Upsert(ctx context.Context, run pipeline.Run) error {
	row, err := rowFromRun(run)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (`+runColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             stage = excluded.stage,
             source_file = excluded.source_file,
             detected_language = excluded.detected_language,
             transcript = excluded.transcript,
             words_json = excluded.words_json,
             translation_json = excluded.translation_json,
             translated_text = excluded.translated_text,
             model = excluded.model,
             video_json = excluded.video_json,
             saved_url = excluded.saved_url,
             error_stage = excluded.error_stage,
             error_message = excluded.error_message,
             error_retryable = excluded.error_retryable,
             progress_message = excluded.progress_message,
             progress_percent = excluded.progress_percent,
             updated_at = excluded.updated_at`,
		row.ID,
		row.Stage,
		nullableString(row.SourceFile),
		nullableString(row.DetectedLanguage),
		nullableString(row.Transcript),
		nullableString(row.WordsJSON),
		nullableString(row.TranslationJSON),
		nullableString(row.TranslatedText),
		nullableString(row.Model),
		nullableString(row.VideoJSON),
		nullableString(row.SavedURL),
		nullableString(row.ErrorStage),
		nullableString(row.ErrorMessage),
		boolToInt(row.ErrorRetryable),
		nullableString(row.ProgressMessage),
		row.ProgressPercent,
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
		row.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// Record implements the pipeline recorder contract. Ledger failures are
// logged and swallowed so persistence never disturbs a conversion.
func (s *Store) Record(ctx context.Context, run pipeline.Run) {
	if err := s.Upsert(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("run snapshot not recorded",
			logging.String(logging.FieldRunID, run.ID),
			logging.Error(err))
	}
}

// Get fetches a run snapshot by identifier. Returns nil when unknown.
func (s *Store) Get(ctx context.Context, id string) (*pipeline.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns recorded runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]*pipeline.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*pipeline.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats returns a count of recorded runs grouped by stage.
func (s *Store) Stats(ctx context.Context) (map[pipeline.Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(1) FROM runs GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[pipeline.Stage]int)
	for rows.Next() {
		var stage pipeline.Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Remove deletes a recorded run by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all recorded runs.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

// ClearFinished removes runs that settled in a terminal stage, keeping
// failures for inspection.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE stage IN (?, ?, ?)`,
		pipeline.StageComplete,
		pipeline.StageVideoReady,
		pipeline.StageIdle,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*pipeline.Run, error) {
	var (
		id              string
		stage           string
		sourceFile      sql.NullString
		detected        sql.NullString
		transcript      sql.NullString
		wordsJSON       sql.NullString
		translationJSON sql.NullString
		translatedText  sql.NullString
		model           sql.NullString
		videoJSON       sql.NullString
		savedURL        sql.NullString
		errorStage      sql.NullString
		errorMessage    sql.NullString
		errorRetryable  sql.NullInt64
		progressMessage sql.NullString
		progressPercent sql.NullFloat64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stage,
		&sourceFile,
		&detected,
		&transcript,
		&wordsJSON,
		&translationJSON,
		&translatedText,
		&model,
		&videoJSON,
		&savedURL,
		&errorStage,
		&errorMessage,
		&errorRetryable,
		&progressMessage,
		&progressPercent,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	row := Row{
		ID:               id,
		Stage:            stage,
		SourceFile:       sourceFile.String,
		DetectedLanguage: detected.String,
		Transcript:       transcript.String,
		WordsJSON:        wordsJSON.String,
		TranslationJSON:  translationJSON.String,
		TranslatedText:   translatedText.String,
		Model:            model.String,
		VideoJSON:        videoJSON.String,
		SavedURL:         savedURL.String,
		ErrorStage:       errorStage.String,
		ErrorMessage:     errorMessage.String,
		ErrorRetryable:   errorRetryable.Valid && errorRetryable.Int64 != 0,
		ProgressMessage:  progressMessage.String,
		ProgressPercent:  progressPercent.Float64,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		row.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		row.UpdatedAt = updated
	}

	run, err := row.Run()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
