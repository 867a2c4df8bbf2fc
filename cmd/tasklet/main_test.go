package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasklet/backend/internal/client/apiclient"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, arg := range []string{"abc", "0", "-3", "1.5", ""} {
		_, err := parseID(arg)
		assert.Error(t, err, arg)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserErr, exitCode(&apiclient.APIError{StatusCode: 404}))
	assert.Equal(t, exitUserErr, exitCode(fmt.Errorf("wrapped: %w", &apiclient.APIError{StatusCode: 400})))
	assert.Equal(t, exitSysErr, exitCode(&apiclient.APIError{StatusCode: 500}))
	assert.Equal(t, exitSysErr, exitCode(errors.New("connection refused")))
}

func TestPrintTodos(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	todos := []apiclient.Todo{
		{ID: 2, Title: "Walk dog", Completed: true, CreatedAt: at, UpdatedAt: at},
		{ID: 1, Title: "Buy milk", CreatedAt: at, UpdatedAt: at},
	}

	tests := []struct {
		output string
		want   []string
	}{
		{outputTable, []string{"Walk dog", "Buy milk", "1 of 2 tasks remaining"}},
		{outputJSON, []string{`"title": "Walk dog"`, `"completed": true`, `"createdAt": "2026-03-01T09:00:00Z"`}},
		{outputYAML, []string{"title: Walk dog", "completed: true", "id: 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			settings.Set(keyOutput, tt.output)
			t.Cleanup(func() { settings.Set(keyOutput, outputTable) })

			var buf bytes.Buffer
			require.NoError(t, printTodos(&buf, todos))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestPrintTodos_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTodos(&buf, []apiclient.Todo{}))
	assert.Equal(t, "No todos yet.\n", buf.String())
}
