package reports

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  wire.ReportID
	reports map[wire.ReportID]*models.Report
	log     []*models.ReportStatusChange
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:  1,
		reports: make(map[wire.ReportID]*models.Report),
	}
}

func (r *MemoryRepository) Create(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *report
	stored.ID = r.nextID
	stored.Datetime = time.Now()
	stored.Status = wire.ReportOpened
	r.nextID++
	r.reports[stored.ID] = &stored

	report.ID = stored.ID
	report.Datetime = stored.Datetime
	report.Status = stored.Status
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id wire.ReportID) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *report
	return &result, nil
}

func (r *MemoryRepository) SetStatus(_ context.Context, id wire.ReportID, status wire.ReportStatus, actor wire.UserID, at time.Time) (wire.ReportStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return 0, common.ErrNotFound
	}

	old := report.Status
	report.Status = status
	r.log = append(r.log, &models.ReportStatusChange{
		Report: id,
		Old:    old,
		New:    status,
		Actor:  actor,
		At:     at,
	})
	return old, nil
}

func (r *MemoryRepository) Search(_ context.Context, filter *Filter) ([]*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Report
	for id := wire.ReportID(1); id < r.nextID; id++ {
		report, ok := r.reports[id]
		if !ok || !matches(report, filter) {
			continue
		}
		copied := *report
		result = append(result, &copied)
	}
	return result, nil
}

func (r *MemoryRepository) StatusLog(_ context.Context, id wire.ReportID) ([]*models.ReportStatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ReportStatusChange
	for _, change := range r.log {
		if change.Report == id {
			copied := *change
			result = append(result, &copied)
		}
	}
	return result, nil
}

func matches(report *models.Report, filter *Filter) bool {
	for _, word := range filter.Words {
		w := strings.ToLower(word)
		if !strings.Contains(strings.ToLower(report.ShortDesc), w) &&
			!strings.Contains(strings.ToLower(report.ExtendedDesc), w) &&
			!strings.Contains(strings.ToLower(report.MessageText), w) {
			return false
		}
	}
	if filter.Reported != nil && report.Reported != *filter.Reported {
		return false
	}
	if filter.Reporter != nil && (report.Reporter == nil || *report.Reporter != *filter.Reporter) {
		return false
	}
	// Both bounds are inclusive.
	if filter.Before != nil && report.Datetime.After(*filter.Before) {
		return false
	}
	if filter.After != nil && report.Datetime.Before(*filter.After) {
		return false
	}
	if filter.CommunityName != nil &&
		!strings.Contains(strings.ToLower(report.CommunityName), strings.ToLower(*filter.CommunityName)) {
		return false
	}
	if filter.RoomName != nil &&
		!strings.Contains(strings.ToLower(report.RoomName), strings.ToLower(*filter.RoomName)) {
		return false
	}
	if filter.Status != nil && report.Status != *filter.Status {
		return false
	}
	return true
}
