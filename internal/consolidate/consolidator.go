// Package consolidate merges per-subject score tables into one record
// per student, resolving spelling variations across sheets through the
// match package.
package consolidate

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "marklens/internal/errors"
	"marklens/internal/match"
	"marklens/pkg/contracts/domain"
)

// Options configures a consolidation run.
type Options struct {
	// MinMark and MaxMark bound the valid mark range; rows outside it
	// fail validation before consolidation begins.
	MinMark float64
	MaxMark float64
	// MaxRows caps the total row count across all tables. Oversized
	// inputs are rejected before the pipeline starts.
	MaxRows int
}

// DefaultOptions returns the standard 0-100 mark range with a 10k row cap.
func DefaultOptions() Options {
	return Options{MinMark: 0, MaxMark: 100, MaxRows: 10000}
}

// Consolidator merges subject tables into a ConsolidatedSet. Identity
// assignment is deterministic: tables are processed in caller order and
// the first-encountered spelling of a student becomes canonical, so
// reordering the input changes canonical spellings (a documented
// behavior) but never the set of students or their marks.
type Consolidator struct {
	matcher *match.Matcher
	opts    Options
	logger  *slog.Logger
}

// New creates a consolidator. A nil matcher falls back to the default
// scorer at the default threshold.
func New(matcher *match.Matcher, opts Options, logger *slog.Logger) *Consolidator {
	if matcher == nil {
		matcher = match.NewMatcher(nil, match.DefaultThreshold)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{
		matcher: matcher,
		opts:    opts,
		logger:  logger.With(slog.String("component", "consolidator")),
	}
}

// Consolidate validates every table and merges them into one record per
// resolved student identity. Validation failures are returned before
// any merging happens so a bad row never contaminates the output.
func (c *Consolidator) Consolidate(ctx context.Context, tables []domain.SubjectTable) (*domain.ConsolidatedSet, error) {
	if err := c.validate(tables); err != nil {
		return nil, err
	}

	set := &domain.ConsolidatedSet{
		Records: make(map[string]domain.ConsolidatedRecord),
	}

	for _, table := range tables {
		c.logger.InfoContext(ctx, "consolidating subject table",
			slog.String("subject", table.Subject),
			slog.Int("rows", len(table.Rows)),
			slog.Int("known_identities", len(set.Students)))

		set.Subjects = append(set.Subjects, table.Subject)

		// Rows resolve only against identities that existed before this
		// table started. A sheet lists each student once, so two rows of
		// the same sheet can never merge with each other.
		pool := append([]string(nil), set.Students...)
		claimed := make(map[string]struct{}, len(table.Rows))

		for _, row := range table.Rows {
			student, err := c.resolveIdentity(ctx, set, pool, claimed, table.Subject, row.RawName)
			if err != nil {
				return nil, err
			}
			claimed[student] = struct{}{}

			if row.Mark == nil {
				// A row with no mark still establishes the student's
				// identity; the subject simply stays missing.
				continue
			}
			record := set.Records[student]
			record.Marks[table.Subject] = *row.Mark
			set.Records[student] = record
		}
	}

	if len(set.Students) == 0 {
		return nil, fmt.Errorf("consolidate: %w", apperrors.ErrEmptyInput)
	}

	c.logger.InfoContext(ctx, "consolidation complete",
		slog.Int("subjects", len(set.Subjects)),
		slog.Int("students", len(set.Students)))

	return set, nil
}

// resolveIdentity matches a raw name against the canonical spellings in
// pool, creating a fresh identity when nothing qualifies. An identity
// already claimed by an earlier row of the same table is not reused:
// the later row keeps its own spelling so neither row's mark is lost.
func (c *Consolidator) resolveIdentity(ctx context.Context, set *domain.ConsolidatedSet, pool []string, claimed map[string]struct{}, subject, rawName string) (string, error) {
	if canonical, score, ok := c.matcher.Match(rawName, pool); ok {
		if _, taken := claimed[canonical]; !taken {
			if canonical != rawName {
				c.logger.DebugContext(ctx, "resolved name variant",
					slog.String("raw_name", rawName),
					slog.String("canonical", canonical),
					slog.Float64("score", score))
			}
			return canonical, nil
		}
		c.logger.WarnContext(ctx, "identity already claimed in this table, keeping row separate",
			slog.String("subject", subject),
			slog.String("raw_name", rawName),
			slog.String("canonical", canonical),
			slog.Float64("score", score))
	}

	if _, exists := set.Records[rawName]; exists {
		return "", apperrors.NewDuplicateNameError(subject, rawName)
	}
	set.Students = append(set.Students, rawName)
	set.Records[rawName] = domain.ConsolidatedRecord{
		Student: rawName,
		Marks:   make(map[string]float64),
	}
	return rawName, nil
}

// validate applies the table-level checks: non-empty input, the row
// cap, per-table duplicate raw names, and the valid mark range.
func (c *Consolidator) validate(tables []domain.SubjectTable) error {
	if len(tables) == 0 {
		return fmt.Errorf("no subject tables provided: %w", apperrors.ErrEmptyInput)
	}

	totalRows := 0
	for _, table := range tables {
		totalRows += len(table.Rows)
	}
	if c.opts.MaxRows > 0 && totalRows > c.opts.MaxRows {
		return fmt.Errorf("%d rows exceed the configured cap of %d: %w",
			totalRows, c.opts.MaxRows, apperrors.ErrInputTooLarge)
	}

	for _, table := range tables {
		seen := make(map[string]struct{}, len(table.Rows))
		for _, row := range table.Rows {
			key := match.Normalize(row.RawName)
			if _, dup := seen[key]; dup {
				return apperrors.NewDuplicateNameError(table.Subject, row.RawName)
			}
			seen[key] = struct{}{}

			if row.Mark != nil && (*row.Mark < c.opts.MinMark || *row.Mark > c.opts.MaxMark) {
				return apperrors.NewInvalidMarkError(
					table.Subject, row.RawName, *row.Mark, c.opts.MinMark, c.opts.MaxMark)
			}
		}
	}

	return nil
}
