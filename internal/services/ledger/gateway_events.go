package ledger

import (
	"context"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	serviceports "github.com/kevin07696/settlement-service/internal/services/ports"
	"github.com/kevin07696/settlement-service/pkg/observability"
)

// gatewayTransitions maps payment events onto the status they confirm
var gatewayTransitions = map[serviceports.GatewayEventType]domain.PaymentStatus{
	serviceports.GatewayEventAuthorized: domain.PaymentStatusProcessing,
	serviceports.GatewayEventCaptured:   domain.PaymentStatusCompleted,
	serviceports.GatewayEventFailed:     domain.PaymentStatusFailed,
	serviceports.GatewayEventCancelled:  domain.PaymentStatusCancelled,
}

// OnGatewayEvent applies a gateway confirmation. Redelivery of an event that was already
// applied leaves the payment unchanged.
func (s *Service) OnGatewayEvent(ctx context.Context, event *serviceports.GatewayEvent) (*domain.Payment, error) {
	if event.PaymentID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payment_id is required")
	}
	at := event.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	var (
		payment *domain.Payment
		applied bool
		err     error
	)

	switch event.Event {
	case serviceports.GatewayEventAuthorized, serviceports.GatewayEventCaptured,
		serviceports.GatewayEventFailed, serviceports.GatewayEventCancelled:
		target := gatewayTransitions[event.Event]
		payment, err = s.mutate(ctx, "gateway_"+string(event.Event), event.PaymentID, func(p *domain.Payment) (bool, error) {
			if event.Event == serviceports.GatewayEventCaptured && event.Amount != nil &&
				!event.Amount.Equal(p.Amount.FinalAmount) {
				return false, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "captured amount differs from payment final amount").
					WithDetail("captured", event.Amount.String()).
					WithDetail("final_amount", p.Amount.FinalAmount.String())
			}
			var terr error
			applied, terr = p.Transition(target, at)
			if terr != nil {
				return false, terr
			}
			merged := mergeGatewayIDs(p, event.GatewayIDs)
			return applied || merged, nil
		})
		if err == nil {
			result := "duplicate"
			if applied {
				result = "applied"
			}
			observability.RecordPaymentTransition(string(target), result)
		}

	case serviceports.GatewayEventRefundProcessed:
		if event.RefundID == "" {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "refund_id is required")
		}
		payment, err = s.mutate(ctx, "gateway_refund_processed", event.PaymentID, func(p *domain.Payment) (bool, error) {
			if refund, ok := p.FindRefund(event.RefundID); ok && event.Amount != nil && !event.Amount.Equal(refund.Amount) {
				return false, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "refunded amount differs from requested refund").
					WithDetail("refund_id", event.RefundID).
					WithDetail("refunded", event.Amount.String())
			}
			var rerr error
			applied, rerr = p.ApplyProcessedRefund(event.RefundID, event.RefundReference, at)
			if rerr != nil {
				return false, rerr
			}
			return applied, nil
		})
		if err == nil && applied {
			refund, _ := payment.FindRefund(event.RefundID)
			observability.RecordRefund("processed", payment.Amount.Currency, refund.Amount.InexactFloat64())
		}

	case serviceports.GatewayEventRefundFailed:
		if event.RefundID == "" {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "refund_id is required")
		}
		payment, err = s.mutate(ctx, "gateway_refund_failed", event.PaymentID, func(p *domain.Payment) (bool, error) {
			var rerr error
			applied, rerr = p.MarkRefundFailed(event.RefundID, at)
			return applied, rerr
		})
		if err == nil && applied {
			observability.RecordRefund("failed", payment.Amount.Currency, 0)
		}

	default:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown gateway event").
			WithDetail("event", string(event.Event))
	}

	if err != nil {
		observability.RecordGatewayEvent(string(event.Event), "error")
		s.logger.Error("gateway event rejected",
			ports.String("payment_id", event.PaymentID),
			ports.String("event", string(event.Event)),
			ports.Err(err))
		return nil, err
	}

	outcome := "duplicate"
	if applied {
		outcome = "applied"
	}
	observability.RecordGatewayEvent(string(event.Event), outcome)
	s.logger.Info("gateway event processed",
		ports.String("payment_id", event.PaymentID),
		ports.String("event", string(event.Event)),
		ports.String("outcome", outcome),
		ports.String("status", string(payment.Status)))

	return payment, nil
}

// mergeGatewayIDs copies gateway identifiers onto the payment, never overwriting a value
// that is already recorded. It reports whether anything was added.
func mergeGatewayIDs(p *domain.Payment, ids map[string]string) bool {
	if len(ids) == 0 {
		return false
	}
	if p.TransactionDetails == nil {
		p.TransactionDetails = make(map[string]string, len(ids))
	}
	changed := false
	for k, v := range ids {
		if _, exists := p.TransactionDetails[k]; exists || v == "" {
			continue
		}
		p.TransactionDetails[k] = v
		changed = true
	}
	return changed
}
