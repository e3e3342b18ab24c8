package costs

import "time"

// CostEntry is an incurred cost against a project. The inventory and
// purchasing subsystems own these rows; this engine only reads them as
// input for margin and performance figures.
type CostEntry struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	AmountNet  float64   `json:"amount_net"`
	IncurredOn time.Time `json:"incurred_on"`
}
