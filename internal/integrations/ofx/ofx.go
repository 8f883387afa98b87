// Package ofx parses OFX-flavored XML bank statements into ledger
// transactions. Only the transaction list is read; account and balance
// blocks are ignored.
package ofx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// fallbackCategory is assigned when the statement carries no category
// information, which OFX never does.
const fallbackCategory = "misc"

// Parse extracts transactions from an OFX XML statement. Amount signs
// follow OFX convention: negative is money out, positive is money in;
// both land in the ledger as non-negative amounts with a kind.
func Parse(r io.Reader) ([]models.Transaction, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	elements := doc.FindElements("//STMTTRN")
	if len(elements) == 0 {
		return nil, fmt.Errorf("no transactions found in statement")
	}

	txs := make([]models.Transaction, 0, len(elements))
	for i, el := range elements {
		tx, err := parseTransaction(el)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseTransaction(el *etree.Element) (models.Transaction, error) {
	posted := childText(el, "DTPOSTED")
	day, err := parsePosted(posted)
	if err != nil {
		return models.Transaction{}, err
	}

	rawAmount := childText(el, "TRNAMT")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("bad TRNAMT %q", rawAmount)
	}

	kind := models.KindIncome
	if amount.IsNegative() {
		kind = models.KindExpense
		amount = amount.Abs()
	}

	memo := childText(el, "NAME")
	if m := childText(el, "MEMO"); m != "" {
		memo = m
	}

	return models.Transaction{
		Date:     day,
		Amount:   amount,
		Category: fallbackCategory,
		Memo:     memo,
		Kind:     kind,
	}, nil
}

// parsePosted handles OFX dates: YYYYMMDD with an optional time and
// timezone suffix, which are dropped.
func parsePosted(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("bad DTPOSTED %q", s)
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad DTPOSTED %q", s)
	}
	return dates.Day(t), nil
}

func childText(el *etree.Element, tag string) string {
	child := el.FindElement("./" + tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
