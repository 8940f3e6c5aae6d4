package port

import "context"

// Alerter raises operator-visible alerts
type Alerter interface {
	Alert(ctx context.Context, message string, attrs map[string]string) error
}
