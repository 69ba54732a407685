package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/logger"
	"github.com/frontandrew/flighthub/internal/usecase/reference"
	"github.com/stretchr/testify/assert"
)

type fakeSyncer struct {
	calls []string
	err   error
}

func (f *fakeSyncer) Sync(_ context.Context, entity string) (*reference.SyncReport, error) {
	f.calls = append(f.calls, entity)
	if f.err != nil {
		return nil, f.err
	}
	return &reference.SyncReport{Entity: entity, Total: 3, Saved: 2, Invalid: 1}, nil
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		err          error
		expectedCode int
		expectedSync []string
	}{
		{
			name:         "синхронизация аэропортов",
			args:         []string{"airports", "sync"},
			expectedCode: exitOK,
			expectedSync: []string{"airports"},
		},
		{
			name:         "источник недоступен",
			args:         []string{"airlines", "sync"},
			err:          fmt.Errorf("fetch airlines: %w", domain.ErrSourceUnavailable),
			expectedCode: exitError,
			expectedSync: []string{"airlines"},
		},
		{
			name:         "неизвестный справочник",
			args:         []string{"pilots", "sync"},
			expectedCode: exitUsage,
		},
		{
			name:         "неизвестная команда",
			args:         []string{"aircrafts", "drop"},
			expectedCode: exitUsage,
		},
		{
			name:         "без аргументов",
			expectedCode: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{err: tt.err}
			var stderr bytes.Buffer

			code := run(context.Background(), tt.args, syncer, logger.NewNoop(), &stderr)

			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expectedSync, syncer.calls)
			if tt.expectedCode == exitUsage {
				assert.Contains(t, stderr.String(), "usage:")
			}
		})
	}
}
