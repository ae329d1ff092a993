package service

import (
	"testing"

	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameScoreToleratesAccentsAndTypos(t *testing.T) {
	assert.Equal(t, 1.0, nameScore("PIX RECEBIDO João Silva", "Joao Silva"))
	assert.Equal(t, 1.0, nameScore("PIX RECEBIDO JOAO SYLVA", "Joao Silva"))
	assert.Equal(t, 0.5, nameScore("TED JOAO PEREIRA", "Joao Silva"))
	assert.Equal(t, 0.0, nameScore("TARIFA BANCARIA", "Joao Silva"))
	assert.Equal(t, 0.0, nameScore("", "Joao Silva"))
}

func TestAmountScoreBands(t *testing.T) {
	assert.Equal(t, 1.0, amountScore(150, 150))
	assert.Equal(t, 1.0, amountScore(-150, -150))
	assert.Equal(t, 0.95, amountScore(151, 150))
	assert.Equal(t, 0.80, amountScore(156, 150))
	assert.InDelta(t, 0.3, amountScore(75, 150), 1e-9)
	assert.Equal(t, 0.0, amountScore(400, 150))
	assert.Equal(t, 0.0, amountScore(10, 0))
}

func TestSignScore(t *testing.T) {
	assert.Equal(t, 1.0, signScore(10, 50))
	assert.Equal(t, 1.0, signScore(-10, -50))
	assert.Equal(t, 0.0, signScore(-10, 50))
	assert.Equal(t, 0.5, signScore(10, 0))
}

func TestSuggestPicksBestCandidateDeterministically(t *testing.T) {
	txs := []bankdomain.BankTransaction{
		{ID: 1, Amount: 150, Description: "PIX RECEBIDO Joao Silva", Status: bankdomain.StatusUnmatched},
		{ID: 2, Amount: -80.5, Description: "PIX ENVIADO Maria Souza", Status: bankdomain.StatusUnmatched},
		{ID: 3, Amount: -2, Description: "TARIFA", Status: bankdomain.StatusUnmatched},
		{ID: 4, Amount: 150, Description: "PIX Joao Silva", Status: bankdomain.StatusUnmatched, Ignored: true},
		{ID: 5, Amount: 150, Description: "PIX Joao Silva", Status: bankdomain.StatusLinked},
	}
	candidates := []Candidate{
		{EntityID: 30, Name: "Maria Souza", OpenBalance: -80.5},
		{EntityID: 20, Name: "Joao Silva", OpenBalance: 150},
		{EntityID: 10, Name: "Joao Silva", OpenBalance: 0},
	}

	got := Suggest(txs, candidates)
	require.Len(t, got, 2)
	assert.Equal(t, bankdomain.Suggestion{TransactionID: 1, EntityID: 20, EntityName: "Joao Silva", Confidence: 1}, got[0])
	assert.Equal(t, bankdomain.Suggestion{TransactionID: 2, EntityID: 30, EntityName: "Maria Souza", Confidence: 1}, got[1])

	// equal scores resolve to the lowest entity id
	tie := Suggest(txs[:1], []Candidate{{EntityID: 9, Name: "Joao Silva"}, {EntityID: 8, Name: "Joao Silva"}})
	require.Len(t, tie, 1)
	assert.Equal(t, int64(8), tie[0].EntityID.Int64())
	assert.Equal(t, 0.65, tie[0].Confidence)
}
