package journal

import (
	"os"

	"github.com/gocarina/gocsv"
)

// CSVJournal buffers records in memory and writes the three files on
// Close. Backtests finish before anything is read back, so streaming
// flushes buy nothing here.
type CSVJournal struct {
	tradesPath string
	equityPath string
	dailyPath  string

	trades []TradeRecord
	equity []EquityRow
	daily  []DailyRow
}

// NewCSV creates a CSV journal writing to the given paths. An empty
// daily path skips the daily file.
func NewCSV(tradesPath, equityPath, dailyPath string) *CSVJournal {
	return &CSVJournal{
		tradesPath: tradesPath,
		equityPath: equityPath,
		dailyPath:  dailyPath,
	}
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.trades = append(j.trades, t)
	return nil
}

func (j *CSVJournal) RecordEquity(e EquityRow) error {
	j.equity = append(j.equity, e)
	return nil
}

func (j *CSVJournal) RecordDaily(d DailyRow) error {
	j.daily = append(j.daily, d)
	return nil
}

// Close writes all buffered records. The files are created even when
// empty so downstream tooling always finds the headers.
func (j *CSVJournal) Close() error {
	if err := writeCSV(j.tradesPath, &j.trades); err != nil {
		return err
	}
	if err := writeCSV(j.equityPath, &j.equity); err != nil {
		return err
	}
	if j.dailyPath != "" {
		if err := writeCSV(j.dailyPath, &j.daily); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}
