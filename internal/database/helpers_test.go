// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"context"
	"testing"
	"time"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 42},
		{"several", []float64{10, 20, 30}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFloatNear(t, "average", average(tt.vals), tt.want)
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 42},
		{"odd_count", []float64{30, 10, 20}, 20},
		{"even_count", []float64{40, 10, 30, 20}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkFloatNear(t, "median", median(tt.vals), tt.want)
		})
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	vals := []float64{30, 10, 20}
	_ = median(vals)

	if vals[0] != 30 || vals[1] != 10 || vals[2] != 20 {
		t.Errorf("median reordered its input: %v", vals)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name string
		strs []string
		sep  string
		want string
	}{
		{"empty", nil, ", ", ""},
		{"single", []string{"a"}, ", ", "a"},
		{"several", []string{"a", "b", "c"}, ", ", "a, b, c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkStringEqual(t, "join", join(tt.strs, tt.sep), tt.want)
		})
	}
}

func TestEnsureContext(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	t.Run("nil_context_gets_deadline", func(t *testing.T) {
		//nolint:staticcheck // passing nil deliberately to exercise the fallback
		ctx, cancel := db.ensureContext(nil)
		defer cancel()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the fallback context")
		}
	})

	t.Run("undeadlined_context_gets_deadline", func(t *testing.T) {
		ctx, cancel := db.ensureContext(context.Background())
		defer cancel()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline to be added")
		}
	})

	t.Run("existing_deadline_preserved", func(t *testing.T) {
		want := time.Now().Add(5 * time.Second)
		parent, parentCancel := context.WithDeadline(context.Background(), want)
		defer parentCancel()

		ctx, cancel := db.ensureContext(parent)
		defer cancel()
		got, ok := ctx.Deadline()
		if !ok {
			t.Fatal("deadline lost")
		}
		if !got.Equal(want) {
			t.Errorf("deadline = %v, want %v", got, want)
		}
	})
}

func TestPreparedStmt_CachesByKey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	first, err := db.preparedStmt(ctx, "count_events", "SELECT COUNT(*) FROM viewing_events")
	checkNoError(t, err)
	second, err := db.preparedStmt(ctx, "count_events", "SELECT COUNT(*) FROM viewing_events")
	checkNoError(t, err)

	if first != second {
		t.Error("expected the cached statement on the second lookup")
	}
}
