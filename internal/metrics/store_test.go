package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"meal-planner-dashboard/internal/shared"
)

func TestStore(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	t.Run("Record", func(t *testing.T) {
		err := store.Record(ExecutionMetric{
			AgentName:        "assistant",
			Model:            "gemini-2.0-flash",
			PromptTokens:     120,
			CompletionTokens: 80,
			LatencyMS:        950,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		n, err := store.Count()
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 run recorded, got %d", n)
		}
	})

	t.Run("RecordMetaSkipsEmptyUsage", func(t *testing.T) {
		err := store.RecordMeta(shared.AgentMeta{AgentName: "assistant", Latency: time.Second})
		if err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		n, _ := store.Count()
		if n != 1 {
			t.Errorf("Expected empty usage to be skipped, got %d runs", n)
		}
	})

	t.Run("RecordMeta", func(t *testing.T) {
		err := store.RecordMeta(shared.AgentMeta{
			AgentName: "assistant",
			Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "gemini-2.0-flash"},
			Latency:   200 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		n, _ := store.Count()
		if n != 2 {
			t.Errorf("Expected 2 runs recorded, got %d", n)
		}
	})
}
