// Package insights turns a monthly summary into a few short tips. Advisors
// never fail: upstream problems degrade to DefaultInsights.
package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"nexu/internal/core"
)

// Advisor returns short advisory strings for a summary.
type Advisor interface {
	Advise(ctx context.Context, s core.MonthlySummary) []string
}

// DefaultInsights is served whenever the remote model is unavailable.
func DefaultInsights() []string {
	return []string{
		"Mantenha o foco em suas metas financeiras.",
		"Revise seus gastos fixos este mês.",
		"Considere criar uma reserva de emergência.",
	}
}

// StaticAdvisor always answers with DefaultInsights. Used when no API key is
// configured.
type StaticAdvisor struct{}

func (StaticAdvisor) Advise(context.Context, core.MonthlySummary) []string {
	return DefaultInsights()
}

// Key hashes the summary's JSON form. Equal summaries share a key.
func Key(s core.MonthlySummary) string {
	payload, err := json.Marshal(s)
	if err != nil {
		// Five decimals always marshal; keep a stable key regardless.
		payload = []byte(s.TotalIncome.String() + "|" + s.TotalExpenses.String() + "|" +
			s.PaidExpenses.String() + "|" + s.CardTotal.String() + "|" + s.Balance.String())
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
