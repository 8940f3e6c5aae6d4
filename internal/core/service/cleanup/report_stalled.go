package cleanup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ReportStalled raises an operator alert for every snapshot whose started records have not moved
// since the stall threshold. The records stay started.
// A snapshot is reported once per stall: it is alerted again only after it was updated.
func (c *cleanupService) ReportStalled(ctx context.Context, now time.Time) error {
	snapshots, err := c.uow.SnapshotRepo().FindStalled(ctx, now.Add(-c.stalledAfter))
	if err != nil {
		return err
	}
	stalledSnapshots.Set(float64(len(snapshots)))

	c.mu.Lock()
	defer c.mu.Unlock()

	stalled := make(map[uuid.UUID]struct{}, len(snapshots))
	reported := 0
	for _, snapshot := range snapshots {
		stalled[snapshot.ID] = struct{}{}
		if last, ok := c.alerted[snapshot.ID]; ok && last.Equal(snapshot.UpdatedAt) {
			continue
		}

		attrs := map[string]string{
			"work_id":     snapshot.WorkID.String(),
			"snapshot_id": snapshot.ID.String(),
			"remaining":   strconv.Itoa(snapshot.Remaining()),
		}
		if work, err := c.uow.WorkRepo().FindByID(ctx, snapshot.WorkID); err == nil {
			attrs["doi"] = work.DOI
			attrs["ark"] = work.ARK
		}

		message := fmt.Sprintf("Migration %s of work %s (DOI %s, ARK %s) has %d files still started since %s",
			snapshot.ID, snapshot.WorkID, attrs["doi"], attrs["ark"], snapshot.Remaining(), snapshot.UpdatedAt.Format(time.RFC3339))
		if err := c.alerter.Alert(ctx, message, attrs); err != nil {
			c.logger.Error("failed to raise stalled migration alert", "snapshot_id", snapshot.ID, "err", err)
			continue
		}
		c.alerted[snapshot.ID] = snapshot.UpdatedAt
		reported++
	}

	for id := range c.alerted {
		if _, ok := stalled[id]; !ok {
			delete(c.alerted, id)
		}
	}

	if reported > 0 {
		c.logger.Warn("stalled migrations reported", "count", reported, "stalled", len(snapshots))
	}
	return nil
}
