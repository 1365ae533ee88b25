package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

var tracer = otel.Tracer("github.com/jrsteele09/wallet-oidc-bridge/identity")

// TimeoutVerifier bounds a verifier call so a slow upstream only stalls the
// request that made it.
type TimeoutVerifier struct {
	next    Verifier
	timeout time.Duration
}

var _ Verifier = (*TimeoutVerifier)(nil)

// NewTimeoutVerifier wraps next. A non-positive timeout disables the bound.
func NewTimeoutVerifier(next Verifier, timeout time.Duration) *TimeoutVerifier {
	return &TimeoutVerifier{next: next, timeout: timeout}
}

func (tv *TimeoutVerifier) Verify(ctx context.Context, assertion Assertion) error {
	ctx, span := tracer.Start(ctx, "identity.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("identity.prefix", ShortKey(assertion.PublicKey)))

	if tv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tv.timeout)
		defer cancel()
	}

	result := make(chan error, 1)
	go func() {
		result <- tv.next.Verify(ctx, assertion)
	}()

	select {
	case err := <-result:
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(bridgeerrors.ErrVerificationTimeout, err.Error())
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	case <-ctx.Done():
		span.SetStatus(codes.Error, "verification timed out")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Wrapf(bridgeerrors.ErrVerificationTimeout, "after %s", tv.timeout)
		}
		return ctx.Err()
	}
}
