package ofx

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/models"
)

const sampleStatement = `<?xml version="1.0" encoding="utf-8"?>
<OFX>
  <BANKMSGSRSV1>
    <STMTTRNRS>
      <STMTRS>
        <BANKTRANLIST>
          <STMTTRN>
            <TRNTYPE>DEBIT</TRNTYPE>
            <DTPOSTED>20250103120000</DTPOSTED>
            <TRNAMT>-42.50</TRNAMT>
            <NAME>GROCERY STORE</NAME>
            <MEMO>weekly shop</MEMO>
          </STMTTRN>
          <STMTTRN>
            <TRNTYPE>CREDIT</TRNTYPE>
            <DTPOSTED>20250110</DTPOSTED>
            <TRNAMT>1000.00</TRNAMT>
            <NAME>EMPLOYER PAYROLL</NAME>
          </STMTTRN>
        </BANKTRANLIST>
      </STMTRS>
    </STMTTRNRS>
  </BANKMSGSRSV1>
</OFX>`

func TestParseStatement(t *testing.T) {
	txs, err := Parse(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}

	debit := txs[0]
	if debit.Kind != models.KindExpense {
		t.Errorf("debit kind = %s, want expense", debit.Kind)
	}
	if !debit.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("debit amount = %s, want 42.50", debit.Amount)
	}
	if got := debit.Date.Format("2006-01-02"); got != "2025-01-03" {
		t.Errorf("debit date = %s, want 2025-01-03", got)
	}
	if debit.Memo != "weekly shop" {
		t.Errorf("debit memo = %q, want MEMO over NAME", debit.Memo)
	}

	credit := txs[1]
	if credit.Kind != models.KindIncome {
		t.Errorf("credit kind = %s, want income", credit.Kind)
	}
	if !credit.Amount.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("credit amount = %s, want 1000.00", credit.Amount)
	}
	if credit.Memo != "EMPLOYER PAYROLL" {
		t.Errorf("credit memo = %q, want NAME fallback", credit.Memo)
	}
}

func TestParseRejectsEmptyStatement(t *testing.T) {
	if _, err := Parse(strings.NewReader(`<OFX></OFX>`)); err == nil {
		t.Fatal("Parse returned nil error for statement without transactions")
	}
}

func TestParseRejectsBadPostedDate(t *testing.T) {
	bad := `<OFX><STMTTRN><DTPOSTED>banana</DTPOSTED><TRNAMT>1</TRNAMT></STMTTRN></OFX>`
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatal("Parse returned nil error for bad DTPOSTED")
	}
}
