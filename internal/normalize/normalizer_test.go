package normalize

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dialboard/backend/internal/types"
)

func TestNormalizeOperatorAlias(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	result := n.Normalize(KindOperator, "joão o.")
	if result.NormalizedValue != "João Oliveira" {
		t.Errorf("expected João Oliveira, got %q", result.NormalizedValue)
	}
	if result.Confidence < 0.8 {
		t.Errorf("expected confidence >= 0.8, got %f", result.Confidence)
	}
	if !result.IsValid {
		t.Error("expected alias hit to be valid")
	}
}

func TestNormalizeOperatorIdempotent(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	first := n.Normalize(KindOperator, "maria s.")
	second := n.Normalize(KindOperator, first.NormalizedValue)

	if second.NormalizedValue != first.NormalizedValue {
		t.Errorf("normalization not idempotent: %q -> %q", first.NormalizedValue, second.NormalizedValue)
	}
	if second.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for canonical input, got %f", second.Confidence)
	}
}

func TestNormalizeOperatorHeuristic(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	result := n.Normalize(KindOperator, "pedro   costa")
	if result.NormalizedValue != "Pedro Costa" {
		t.Errorf("expected Pedro Costa, got %q", result.NormalizedValue)
	}
	if !result.IsValid {
		t.Error("expected plausible name to be valid")
	}
}

func TestNormalizeOperatorNearDuplicateWarning(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	n.Normalize(KindOperator, "Pedro Costa")
	result := n.Normalize(KindOperator, "Pedro Costta")

	if len(result.Warnings) == 0 {
		t.Fatal("expected a near-duplicate warning")
	}
	if len(result.Suggestions) == 0 {
		t.Error("expected a near-duplicate suggestion")
	}
}

func TestNormalizeOperatorEmpty(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	result := n.Normalize(KindOperator, "   ")
	if result.IsValid {
		t.Error("expected empty operator to be invalid")
	}
	if result.Confidence != 0 {
		t.Errorf("expected confidence 0, got %f", result.Confidence)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for empty value")
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		valid    bool
	}{
		{"Answered", string(types.StatusAnswered), true},
		{"answered", string(types.StatusAnswered), true},
		{"atendida", string(types.StatusAnswered), true},
		{"ATENDIDA", string(types.StatusAnswered), true},
		{"ok", string(types.StatusAnswered), true},
		{"retida na ura", string(types.StatusMissed), true},
		{"abandonada", string(types.StatusAbandoned), true},
		{"em espera", string(types.StatusWaiting), true},
		{"completou", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := NewNormalizer(DefaultAliases())
			result := n.Normalize(KindStatus, tt.input)

			if result.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v (warnings: %v)", result.IsValid, tt.valid, result.Warnings)
			}
			if tt.valid && result.NormalizedValue != tt.expected {
				t.Errorf("NormalizedValue = %q, want %q", result.NormalizedValue, tt.expected)
			}
		})
	}
}

func TestNormalizeStatusSuggestion(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	result := n.Normalize(KindStatus, "Answerd")
	if result.IsValid {
		t.Error("expected misspelled status to be invalid")
	}
	if len(result.Suggestions) == 0 {
		t.Error("expected a closest-status suggestion")
	}
}

func TestNormalizeQueue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		valid    bool
	}{
		{"Support", "Support", true},
		{"suporte", "Support", true},
		{"VENDAS", "Sales", true},
		{"geral", types.DefaultQueue, true},
		{"mystery queue", "Mystery Queue", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := NewNormalizer(DefaultAliases())
			result := n.Normalize(KindQueue, tt.input)

			if result.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v", result.IsValid, tt.valid)
			}
			if result.NormalizedValue != tt.expected {
				t.Errorf("NormalizedValue = %q, want %q", result.NormalizedValue, tt.expected)
			}
		})
	}
}

func TestNormalizeQueueEmptyFallsBackToDefault(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	result := n.Normalize(KindQueue, "")
	if result.NormalizedValue != types.DefaultQueue {
		t.Errorf("expected default queue, got %q", result.NormalizedValue)
	}
	if result.IsValid {
		t.Error("expected empty queue to be reported invalid")
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		valid    bool
	}{
		{"02:30", "150", true},
		{"90s", "90", true},
		{"3m", "180", true},
		{"45", "45", true},
		{"3.5", "210", true},
		{"soon", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := NewNormalizer(DefaultAliases())
			result := n.Normalize(KindDuration, tt.input)

			if result.NormalizedValue != tt.expected {
				t.Errorf("NormalizedValue = %q, want %q", result.NormalizedValue, tt.expected)
			}
			if result.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v", result.IsValid, tt.valid)
			}
		})
	}
}

func TestLoadAliasFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")

	override := AliasTable{
		Operators: map[string]string{"ZE ": "José Lima"},
		Queues:    map[string]string{"retencao": "Support"},
	}
	data, err := json.Marshal(override)
	if err != nil {
		t.Fatalf("failed to marshal override: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write alias file: %v", err)
	}

	table, err := LoadAliasFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Override keys are lower-cased and trimmed
	if table.Operators["ze"] != "José Lima" {
		t.Errorf("expected override entry, got %q", table.Operators["ze"])
	}
	// Defaults survive the merge
	if table.Operators["joao o."] != "João Oliveira" {
		t.Error("expected default aliases to survive merge")
	}
	if table.Queues["retencao"] != "Support" {
		t.Errorf("expected queue override, got %q", table.Queues["retencao"])
	}
}

func TestLoadAliasFileMissing(t *testing.T) {
	_, err := LoadAliasFile("/nonexistent/aliases.json")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
