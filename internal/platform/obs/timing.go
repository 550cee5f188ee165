// Package obs carries small observability helpers shared by the
// service layer.
package obs

import (
	"context"
	"log"
	"time"

	"van-route-service/internal/platform/metrics"
)

// Time logs and records how long an operation took. Use it as a
// one-line defer at the top of the operation:
//
//	func (s *S) Op(ctx context.Context) (err error) {
//		defer obs.Time(ctx, "s.Op")(&err)
//		...
//	}
//
// errp may be nil for operations that cannot fail.
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		elapsed := time.Since(start)
		metrics.OpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		if errp != nil && *errp != nil {
			log.Printf("op=%s elapsed=%s err=%v", op, elapsed.Round(time.Millisecond), *errp)
			return
		}
		log.Printf("op=%s elapsed=%s", op, elapsed.Round(time.Millisecond))
	}
}
