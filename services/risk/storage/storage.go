// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage persists completed assessments in BadgerDB.
//
// # Description
//
// BadgerDB gives low-latency embedded storage with no external service
// to operate. Assessments are stored newest-first per company by keying
// with an inverted timestamp, so latest-lookup and history reads are
// single prefix scans.
//
// Persistence is best effort from the caller's point of view: the API
// returns the assessment before the write completes, and a failed write
// is recorded as a system error, never surfaced to the requester.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
)

// ErrNotFound is returned when a company has no stored assessments.
var ErrNotFound = errors.New("no assessments found")

// DefaultHistoryLimit bounds a history read when the caller passes no
// explicit limit.
const DefaultHistoryLimit = 20

// keyPrefix namespaces assessment records within the database.
const keyPrefix = "assessment/"

// Config holds configuration for the assessment store.
type Config struct {
	// Path is the directory for BadgerDB files. Required unless
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful
	// for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC. Ignored in memory mode.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before
	// GC rewrites a value log file.
	GCDiscardRatio float64

	// Logger receives store and BadgerDB logs. Nil disables BadgerDB's
	// internal logging.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: durable writes and a
// five-minute GC cadence.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests. Data is lost on
// close.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the assessment repository.
//
// # Thread Safety
//
// Store is safe for concurrent use; BadgerDB handles transaction
// isolation internally.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	stopGC chan struct{}
	doneGC chan struct{}
}

// Open opens the store, creating the database directory if needed.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, logger: logger}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneGC)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
		s.stopGC = nil
	}
	return s.db.Close()
}

// assessmentKey builds "assessment/<company>/<inverted nanos>". The
// inverted timestamp makes newer records sort first under the company
// prefix.
func assessmentKey(companyID string, ts time.Time) []byte {
	inverted := uint64(math.MaxInt64 - ts.UnixNano())
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, companyID, inverted))
}

func companyPrefix(companyID string) []byte {
	return []byte(keyPrefix + companyID + "/")
}

// SaveAssessment persists one completed assessment.
func (s *Store) SaveAssessment(ctx context.Context, assessment *datatypes.ComprehensiveAssessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if assessment == nil {
		return errors.New("assessment must not be nil")
	}

	value, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment %s: %w", assessment.AssessmentID, err)
	}
	key := assessmentKey(assessment.CompanyID, assessment.Timestamp)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("store assessment %s: %w", assessment.AssessmentID, err)
	}
	return nil
}

// LatestAssessment returns the most recent assessment for a company.
// Returns ErrNotFound when the company has none.
func (s *Store) LatestAssessment(ctx context.Context, companyID string) (*datatypes.ComprehensiveAssessment, error) {
	history, err := s.AssessmentHistory(ctx, companyID, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history[0], nil
}

// AssessmentByID returns the assessment with the given id for a
// company. Records are keyed by timestamp, so this scans the company
// prefix. Returns ErrNotFound when no record matches.
func (s *Store) AssessmentByID(ctx context.Context, companyID, assessmentID string) (*datatypes.ComprehensiveAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := companyPrefix(companyID)
	var found *datatypes.ComprehensiveAssessment

	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var assessment datatypes.ComprehensiveAssessment
				if err := json.Unmarshal(val, &assessment); err != nil {
					return fmt.Errorf("corrupt assessment record %s: %w", it.Item().Key(), err)
				}
				if assessment.AssessmentID == assessmentID {
					found = &assessment
				}
				return nil
			})
			if err != nil || found != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// AssessmentHistory returns up to limit assessments for a company,
// newest first. A non-positive limit means DefaultHistoryLimit.
func (s *Store) AssessmentHistory(ctx context.Context, companyID string, limit int) ([]*datatypes.ComprehensiveAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	prefix := companyPrefix(companyID)
	assessments := make([]*datatypes.ComprehensiveAssessment, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(assessments) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var assessment datatypes.ComprehensiveAssessment
				if err := json.Unmarshal(val, &assessment); err != nil {
					return fmt.Errorf("corrupt assessment record %s: %w", it.Item().Key(), err)
				}
				assessments = append(assessments, &assessment)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assessments, nil
}
