package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/sentinel"
)

// ReferenceSequence hands out the next number of a reference scope.
type ReferenceSequence interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// Lookup translates a repository error. A missing aggregate becomes
// CodeNotFound, or a violation carrying code when one is given.
func Lookup(err error, aggregate, code string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		msg := fmt.Sprintf("%s not found", aggregate)
		if code != "" {
			return dErrors.NewViolations(dErrors.Violation{Code: code, Message: msg})
		}
		return dErrors.New(dErrors.CodeNotFound, msg)
	}
	var de *dErrors.Error
	var v *dErrors.Violations
	if errors.As(err, &de) || errors.As(err, &v) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to load %s", aggregate))
}

// Persist wraps a repository write failure.
func Persist(err error, aggregate string) error {
	if err == nil {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to save %s", aggregate))
}

// Record appends a history entry tagged with the aggregate and step.
func Record(ctx context.Context, h History, doctorateID id.DoctorateID, author id.Matricule, at time.Time,
	message string, statusChanged bool, aggregate, step string) error {
	tags := []string{aggregate, step}
	if statusChanged {
		tags = append(tags, TagStatusChanged)
	}
	err := h.Record(ctx, HistoryEntry{
		DoctorateID: doctorateID,
		Author:      author,
		Message:     message,
		Tags:        tags,
		At:          at,
	})
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record history")
}
