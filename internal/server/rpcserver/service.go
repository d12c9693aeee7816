package rpcserver

import (
	"context"
	"net/http"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

// SuccessMarker is the result of an accepted swap.
const SuccessMarker = "success"

// serviceName is the name RelayService is registered under.
const serviceName = "Relay"

// Swapper forwards a swap to the engine. *service.Gate implements it.
type Swapper interface {
	Swap(ctx context.Context, onion *domain.Onion, comsig *domain.ComSignature) error
}

// RelayService exposes the swap method. It holds no per-request state.
type RelayService struct {
	swapper Swapper
	metrics *metric.Registry
}

// Swap handles the "swap" JSON-RPC method.
func (s *RelayService) Swap(r *http.Request, args *domain.SwapRequest, reply *string) error {
	ctx := r.Context()

	if err := s.swapper.Swap(ctx, args.Onion, args.ComSig); err != nil {
		class := domain.Classify(err)
		log := logger.L(ctx).With("commit", args.Onion.Commit.String(), "error", err)
		if class == domain.ClassServer {
			log.Error("swap failed")
			s.metrics.ObserveSwap(metric.ResultServerError)
		} else {
			log.Info("swap rejected", "code", domain.GetErrorCode(err))
			s.metrics.ObserveSwap(metric.ResultClientError)
		}
		return err
	}

	logger.L(ctx).Debug("swap accepted", "commit", args.Onion.Commit.String())
	s.metrics.ObserveSwap(metric.ResultOK)
	*reply = SuccessMarker
	return nil
}
