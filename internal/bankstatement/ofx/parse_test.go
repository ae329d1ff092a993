package ofx

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBankStatement(t *testing.T) {
	f, err := os.Open("testdata/statement.ofx")
	require.NoError(t, err)
	defer f.Close()

	lines, err := Parse(f)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "FIT-001", lines[0].FitID)
	assert.Equal(t, 150.0, lines[0].Amount)
	assert.Equal(t, "PIX RECEBIDO Joao Silva", lines[0].Description)
	assert.Equal(t, "2024-03-05", lines[0].PostedAt.Format("2006-01-02"))

	assert.Equal(t, -80.5, lines[1].Amount)
	assert.Equal(t, "TARIFA", lines[2].Description)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "memo", describe("", " memo "))
	assert.Equal(t, "NAME", describe("NAME", "name"))
	assert.Equal(t, "NAME", describe("NAME", ""))
	assert.Equal(t, "A B", describe("A", "B"))
}
