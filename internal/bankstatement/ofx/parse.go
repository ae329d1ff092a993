// Package ofx reads statement lines out of OFX bank and credit card
// responses.
package ofx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
)

// Line is one posted statement transaction. Amount is signed as the bank
// reports it: credits positive, debits negative.
type Line struct {
	FitID       string
	Amount      float64
	PostedAt    time.Time
	Description string
}

// Parse decodes an OFX document (SGML v1 or XML v2) and returns every
// transaction of every bank and credit card statement it carries.
func Parse(r io.Reader) ([]Line, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}

	var lines []Line
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		lines = appendLines(lines, stmt.BankTranList.Transactions)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		lines = appendLines(lines, stmt.BankTranList.Transactions)
	}
	return lines, nil
}

func appendLines(lines []Line, txs []ofxgo.Transaction) []Line {
	for _, tx := range txs {
		amount, _ := tx.TrnAmt.Float64()
		lines = append(lines, Line{
			FitID:       strings.TrimSpace(string(tx.FiTID)),
			Amount:      amount,
			PostedAt:    tx.DtPosted.Time.UTC(),
			Description: describe(string(tx.Name), string(tx.Memo)),
		})
	}
	return lines
}

func describe(name, memo string) string {
	name = strings.TrimSpace(name)
	memo = strings.TrimSpace(memo)
	switch {
	case name == "":
		return memo
	case memo == "" || strings.EqualFold(name, memo):
		return name
	default:
		return name + " " + memo
	}
}
