package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dialboard/backend/internal/types"
)

// AliasTable maps lower-cased raw field values to their canonical form.
// The tables are domain data, not algorithm: deployments override them via
// a JSON file, the built-in defaults only cover the common vendor exports.
type AliasTable struct {
	Operators map[string]string `json:"operators"`
	Statuses  map[string]string `json:"statuses"`
	Queues    map[string]string `json:"queues"`
}

// DefaultAliases returns the built-in alias tables
func DefaultAliases() AliasTable {
	return AliasTable{
		Operators: map[string]string{
			"joao o.":     "João Oliveira",
			"joão o.":     "João Oliveira",
			"j. oliveira": "João Oliveira",
			"joao":        "João Oliveira",
			"maria s.":    "Maria Santos",
			"m. santos":   "Maria Santos",
			"ana p.":      "Ana Paula",
			"a. paula":    "Ana Paula",
			"carlos e.":   "Carlos Eduardo",
			"c. eduardo":  "Carlos Eduardo",
		},
		Statuses: map[string]string{
			"atendida":      string(types.StatusAnswered),
			"atendido":      string(types.StatusAnswered),
			"answered":      string(types.StatusAnswered),
			"completed":     string(types.StatusAnswered),
			"ok":            string(types.StatusAnswered),
			"perdida":       string(types.StatusMissed),
			"não atendida":  string(types.StatusMissed),
			"nao atendida":  string(types.StatusMissed),
			"missed":        string(types.StatusMissed),
			"retida na ura": string(types.StatusMissed),
			"retida":        string(types.StatusMissed),
			"abandonada":    string(types.StatusAbandoned),
			"abandoned":     string(types.StatusAbandoned),
			"desistiu":      string(types.StatusAbandoned),
			"em espera":     string(types.StatusWaiting),
			"aguardando":    string(types.StatusWaiting),
			"waiting":       string(types.StatusWaiting),
		},
		Queues: map[string]string{
			"geral":       types.DefaultQueue,
			"general":     types.DefaultQueue,
			"suporte":     "Support",
			"support":     "Support",
			"vendas":      "Sales",
			"sales":       "Sales",
			"financeiro":  "Billing",
			"billing":     "Billing",
			"cobranca":    "Billing",
			"cobrança":    "Billing",
			"tecnico":     "Technical",
			"técnico":     "Technical",
			"technical":   "Technical",
			"atendimento": types.DefaultQueue,
		},
	}
}

// LoadAliasFile reads an alias table override from a JSON file and merges it
// over the defaults. Keys are lower-cased on load.
func LoadAliasFile(path string) (AliasTable, error) {
	table := DefaultAliases()

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read alias file: %w", err)
	}

	var override AliasTable
	if err := json.Unmarshal(data, &override); err != nil {
		return table, fmt.Errorf("parse alias file: %w", err)
	}

	mergeLower(table.Operators, override.Operators)
	mergeLower(table.Statuses, override.Statuses)
	mergeLower(table.Queues, override.Queues)
	return table, nil
}

func mergeLower(dst, src map[string]string) {
	for k, v := range src {
		dst[strings.ToLower(strings.TrimSpace(k))] = v
	}
}
