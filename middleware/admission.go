package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
)

// admissionWait bounds how long a request may wait for a slot before
// failing fast with a too-busy error.
const admissionWait = 50 * time.Millisecond

// Admission applies process-wide request rate limiting. The limiter
// tracks the active snapshot so ADMISSION_RPS and ADMISSION_BURST are
// hot-reloadable.
type Admission struct {
	cfg     *config.Manager
	limiter *rate.Limiter

	mu        sync.Mutex
	lastRPS   float64
	lastBurst int
}

func NewAdmission(cfg *config.Manager) *Admission {
	snap := cfg.Current()
	return &Admission{
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(snap.AdmissionRPS), snap.AdmissionBurst),
		lastRPS:   snap.AdmissionRPS,
		lastBurst: snap.AdmissionBurst,
	}
}

// Limit returns the middleware.
func (m *Admission) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.sync()

			ctx, cancel := context.WithTimeout(c.Request().Context(), admissionWait)
			err := m.limiter.Wait(ctx)
			cancel()
			if err != nil {
				return domain.ErrTooBusy
			}
			return next(c)
		}
	}
}

// sync pushes snapshot changes into the limiter. SetLimit and SetBurst
// are safe for concurrent use; redundant calls are cheap no-ops guarded
// by the cached values.
func (m *Admission) sync() {
	snap := m.cfg.Current()
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.AdmissionRPS != m.lastRPS {
		m.limiter.SetLimit(rate.Limit(snap.AdmissionRPS))
		m.lastRPS = snap.AdmissionRPS
	}
	if snap.AdmissionBurst != m.lastBurst {
		m.limiter.SetBurst(snap.AdmissionBurst)
		m.lastBurst = snap.AdmissionBurst
	}
}
