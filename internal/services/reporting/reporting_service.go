package reporting

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	serviceports "github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/pkg/observability"
)

// AvgScale is the number of decimal places averages are rounded to
const AvgScale = 2

// Service implements serviceports.ReportingService as a reduce over a payment range scan
type Service struct {
	source     ports.ReportSource
	sourceName string
	logger     ports.Logger
}

var _ serviceports.ReportingService = (*Service)(nil)

// NewService creates a reporter. sourceName labels metrics (primary, replica).
func NewService(source ports.ReportSource, sourceName string, logger ports.Logger) *Service {
	return &Service{source: source, sourceName: sourceName, logger: logger}
}

// Stats rolls up count, totals and average final amount of the matching payments
func (s *Service) Stats(ctx context.Context, q serviceports.StatsQuery) (*serviceports.Stats, error) {
	filter, err := toFilter(q)
	if err != nil {
		return nil, err
	}
	observability.RecordReportQuery("stats", s.sourceName)

	acc := newAccumulator()
	if err := s.source.ScanPayments(ctx, filter, func(p *domain.Payment) error {
		acc.add(p)
		return nil
	}); err != nil {
		s.logger.Error("stats scan failed", ports.Err(err))
		return nil, err
	}
	return acc.result(), nil
}

// StatsByStatus is Stats grouped by payment status. Statuses with no payments are omitted.
func (s *Service) StatsByStatus(ctx context.Context, q serviceports.StatsQuery) (map[domain.PaymentStatus]*serviceports.Stats, error) {
	filter, err := toFilter(q)
	if err != nil {
		return nil, err
	}
	observability.RecordReportQuery("stats_by_status", s.sourceName)

	groups := make(map[domain.PaymentStatus]*accumulator)
	if err := s.source.ScanPayments(ctx, filter, func(p *domain.Payment) error {
		acc, ok := groups[p.Status]
		if !ok {
			acc = newAccumulator()
			groups[p.Status] = acc
		}
		acc.add(p)
		return nil
	}); err != nil {
		s.logger.Error("stats by status scan failed", ports.Err(err))
		return nil, err
	}

	out := make(map[domain.PaymentStatus]*serviceports.Stats, len(groups))
	for status, acc := range groups {
		out[status] = acc.result()
	}
	return out, nil
}

func toFilter(q serviceports.StatsQuery) (ports.PaymentFilter, error) {
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return ports.PaymentFilter{}, domain.NewDomainError(domain.ErrorCodeValidationFailed, "from must be before to")
	}
	for _, st := range q.Statuses {
		if !st.Valid() {
			return ports.PaymentFilter{}, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown payment status").
				WithDetail("status", string(st))
		}
	}

	basis := q.Basis
	switch basis {
	case "":
		basis = ports.TimeBasisCompleted
	case ports.TimeBasisCompleted, ports.TimeBasisInitiated:
	default:
		return ports.PaymentFilter{}, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown time basis").
			WithDetail("basis", string(basis))
	}

	return ports.PaymentFilter{
		From:     q.From,
		To:       q.To,
		Basis:    basis,
		Statuses: q.Statuses,
		VendorID: q.VendorID,
	}, nil
}

type accumulator struct {
	count    int64
	total    decimal.Decimal
	refunded decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{total: decimal.Zero, refunded: decimal.Zero}
}

func (a *accumulator) add(p *domain.Payment) {
	a.count++
	a.total = a.total.Add(p.Amount.FinalAmount)
	a.refunded = a.refunded.Add(p.TotalRefunded)
}

func (a *accumulator) result() *serviceports.Stats {
	avg := decimal.Zero
	if a.count > 0 {
		avg = a.total.DivRound(decimal.NewFromInt(a.count), AvgScale)
	}
	return &serviceports.Stats{
		Count:         a.count,
		TotalAmount:   a.total,
		TotalRefunded: a.refunded,
		AvgAmount:     avg,
	}
}
