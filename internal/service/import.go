package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/integrations/ofx"
	"github.com/mwootten/easie/internal/models"
)

// ImportOFX posts transactions from an OFX XML statement. Unlike CSV
// import, a malformed statement rejects the whole upload: OFX files are
// machine-produced, so a bad record means a bad file.
func (s *Service) ImportOFX(r io.Reader) (int, error) {
	txs, err := ofx.Parse(r)
	if err != nil {
		return 0, err
	}
	for i := range txs {
		if err := s.store.CreateTransaction(&txs[i]); err != nil {
			return i, fmt.Errorf("import statement transaction %d: %w", i+1, err)
		}
	}
	s.log.Infof("OFX import finished: %d transactions", len(txs))
	return len(txs), nil
}

// ImportCSV posts transactions from a CSV statement with columns
// date,kind,amount,category[,memo]. A header row is detected by its
// unparseable date and skipped; other malformed rows are skipped and
// counted rather than aborting the whole upload. Returns the number of
// rows imported.
func (s *Service) ImportCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	imported, skipped := 0, 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read csv: %w", err)
		}
		line++

		tx, err := parseCSVRow(record)
		if err != nil {
			if line == 1 {
				continue // header
			}
			skipped++
			s.log.Warnf("Skipping CSV line %d: %v", line, err)
			continue
		}
		if err := s.store.CreateTransaction(tx); err != nil {
			return imported, fmt.Errorf("import line %d: %w", line, err)
		}
		imported++
	}

	s.log.Infof("CSV import finished: %d imported, %d skipped", imported, skipped)
	return imported, nil
}

func parseCSVRow(record []string) (*models.Transaction, error) {
	if len(record) < 4 {
		return nil, fmt.Errorf("want at least 4 columns, got %d", len(record))
	}
	day, err := dates.Parse(record[0])
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("bad amount %q", record[2])
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", record[2])
	}
	memo := ""
	if len(record) > 4 {
		memo = strings.TrimSpace(record[4])
	}
	return &models.Transaction{
		Date:     day,
		Kind:     models.ParseKind(strings.TrimSpace(record[1])),
		Amount:   amount,
		Category: strings.TrimSpace(record[3]),
		Memo:     memo,
	}, nil
}
