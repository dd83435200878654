package chat

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"comics-blog/internal/database"
	"comics-blog/internal/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ColumnInteger = "INTEGER"
	ColumnReal    = "REAL"
	ColumnText    = "TEXT"

	// sqlite limits the number of bound parameters in a single statement.
	maxInsertParams = 900
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Dataset struct {
	Table    string
	Source   string
	Columns  []Column
	RowCount int64
}

// DatasetLoader copies a CSV file into a table of the dataset store. Every load
// replaces the table, so loading the same file twice leaves one copy.
type DatasetLoader struct {
	db       *gorm.DB
	provider storage.Provider
	table    string
}

func NewDatasetLoader(db *gorm.DB, provider storage.Provider, table string) (*DatasetLoader, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid dataset table name '%s'", table)
	}
	return &DatasetLoader{db: db, provider: provider, table: table}, nil
}

func (l *DatasetLoader) Load(ctx context.Context, source storage.Source) (Dataset, error) {
	start := time.Now()

	data, err := l.provider.GetObject(ctx, source.Bucket, source.Key)
	if err != nil {
		return Dataset{}, &DataLoadError{Source: source.String(), Err: fmt.Errorf("error reading source: %w", err)}
	}

	header, records, err := parseCSV(data)
	if err != nil {
		return Dataset{}, &DataLoadError{Source: source.String(), Err: err}
	}

	columns := inferColumns(header, records)

	if err := l.replaceTable(ctx, source, columns, records); err != nil {
		return Dataset{}, &DataLoadError{Source: source.String(), Err: err}
	}

	slog.Info("dataset loaded", "table", l.table, "source", source.String(), "rows", len(records), "columns", len(columns), "duration", time.Since(start))

	return Dataset{
		Table:    l.table,
		Source:   source.String(),
		Columns:  columns,
		RowCount: int64(len(records)),
	}, nil
}

func parseCSV(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("csv file is empty")
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(header))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, nil, fmt.Errorf("csv header is missing a name for column %d", i+1)
		}
		if seen[strings.ToLower(name)] {
			return nil, nil, fmt.Errorf("csv header contains duplicate column '%s'", name)
		}
		seen[strings.ToLower(name)] = true
		header[i] = name
	}

	return header, rows[1:], nil
}

func inferColumns(header []string, records [][]string) []Column {
	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Type: inferType(records, i)}
	}
	return columns
}

func inferType(records [][]string, col int) string {
	isInt, isReal, nonEmpty := true, true, false
	for _, record := range records {
		value := strings.TrimSpace(record[col])
		if value == "" {
			continue
		}
		nonEmpty = true
		if isInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				isReal = false
				break
			}
		}
	}

	switch {
	case !nonEmpty:
		return ColumnText
	case isInt:
		return ColumnInteger
	case isReal:
		return ColumnReal
	default:
		return ColumnText
	}
}

func convertValue(value, columnType string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	switch columnType {
	case ColumnInteger:
		v, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		return v
	case ColumnReal:
		v, _ := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return v
	default:
		return value
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (l *DatasetLoader) replaceTable(ctx context.Context, source storage.Source, columns []Column, records [][]string) error {
	columnDefs := make([]string, len(columns))
	columnNames := make([]string, len(columns))
	for i, col := range columns {
		columnNames[i] = quoteIdent(col.Name)
		columnDefs[i] = columnNames[i] + " " + col.Type
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("error encoding column schema: %w", err)
	}

	batchSize := max(1, maxInsertParams/len(columns))
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	return l.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Exec("DROP TABLE IF EXISTS " + quoteIdent(l.table)).Error; err != nil {
			return fmt.Errorf("error dropping table %s: %w", l.table, err)
		}

		create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(l.table), strings.Join(columnDefs, ", "))
		if err := txn.Exec(create).Error; err != nil {
			return fmt.Errorf("error creating table %s: %w", l.table, err)
		}

		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(l.table), strings.Join(columnNames, ", "))
		for begin := 0; begin < len(records); begin += batchSize {
			batch := records[begin:min(begin+batchSize, len(records))]

			placeholders := make([]string, 0, len(batch))
			args := make([]any, 0, len(batch)*len(columns))
			for _, record := range batch {
				placeholders = append(placeholders, placeholder)
				for i, col := range columns {
					args = append(args, convertValue(record[i], col.Type))
				}
			}

			if err := txn.Exec(insert+strings.Join(placeholders, ","), args...).Error; err != nil {
				return fmt.Errorf("error inserting rows %d-%d: %w", begin, begin+len(batch), err)
			}
		}

		if err := txn.Where("name = ?", l.table).Delete(&database.DatasetLoad{}).Error; err != nil {
			return fmt.Errorf("error clearing previous dataset load: %w", err)
		}

		load := database.DatasetLoad{
			Id:       uuid.New(),
			Name:     l.table,
			Source:   source.String(),
			RowCount: int64(len(records)),
			Columns:  datatypes.JSON(columnsJSON),
			LoadedAt: time.Now().UTC(),
		}
		if err := txn.Create(&load).Error; err != nil {
			return fmt.Errorf("error recording dataset load: %w", err)
		}

		return nil
	})
}
