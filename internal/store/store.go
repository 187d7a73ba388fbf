// Package store persists optimization results.
package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/investment-optimizer/internal/allocation"
)

// ErrNotFound is returned when no stored result matches the request.
var ErrNotFound = errors.New("investment result not found")

// DetailRecord is the stored outcome for one enterprise.
type DetailRecord struct {
	Investment float64 `json:"investment" yaml:"investment"`
	Profit     float64 `json:"profit" yaml:"profit"`
	ROI        float64 `json:"roi" yaml:"roi"`
}

// Record is one stored optimization run. Distribution and
// EnterpriseDetails are keyed by the 1-based enterprise id.
type Record struct {
	ID                uuid.UUID               `json:"id" yaml:"id"`
	FileName          string                  `json:"file_name" yaml:"file_name"`
	MaxProfit         float64                 `json:"max_profit" yaml:"max_profit"`
	TotalInvestment   float64                 `json:"total_investment" yaml:"total_investment"`
	ROI               float64                 `json:"roi" yaml:"roi"`
	Distribution      map[string]float64      `json:"distribution" yaml:"distribution"`
	EnterpriseDetails map[string]DetailRecord `json:"enterprise_details" yaml:"enterprise_details"`
	CreatedAt         time.Time               `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at" yaml:"updated_at"`
}

// NewRecord flattens an optimization result for storage.
func NewRecord(fileName string, result *allocation.Result) *Record {
	record := &Record{
		FileName:          fileName,
		MaxProfit:         result.MaxProfit,
		TotalInvestment:   result.Statistics.TotalInvestment,
		ROI:               result.Statistics.ROI,
		Distribution:      make(map[string]float64, len(result.Distribution)),
		EnterpriseDetails: make(map[string]DetailRecord, len(result.Statistics.Enterprises)),
	}
	for i, amount := range result.Distribution {
		record.Distribution[strconv.Itoa(i+1)] = amount
	}
	for _, detail := range result.Statistics.Enterprises {
		record.EnterpriseDetails[strconv.Itoa(detail.EnterpriseID)] = DetailRecord{
			Investment: detail.Investment,
			Profit:     detail.Profit,
			ROI:        detail.ROI,
		}
	}
	return record
}

// Store is implemented by result repositories.
type Store interface {
	// Create assigns an id and timestamps when they are unset and saves
	// the record.
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// Last returns the most recently created record.
	Last(ctx context.Context) (*Record, error)
	// List returns all records, oldest first.
	List(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
