package service

import (
	"context"
	"fmt"

	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/metrics"
	"github.com/htol/bookshelf/validator"
)

// Action is a batch operation name
type Action string

const (
	ActionDelete       Action = "delete"
	ActionMarkAsRead   Action = "mark_as_read"
	ActionMarkAsUnread Action = "mark_as_unread"
)

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionDelete, ActionMarkAsRead, ActionMarkAsUnread:
		return a, nil
	case "":
		return "", fmt.Errorf("%w: missing action", ErrInvalidRequest)
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, s)
	}
}

// BatchRequest applies one action to a set of identifiers
type BatchRequest struct {
	IDs    []string
	Action string
}

// BatchResult reports how many of the requested identifiers were affected.
// Absent identifiers are skipped, never an error.
type BatchResult struct {
	Action    Action
	Requested int
	Affected  int
}

// Batch validates req and dispatches to the matching batch operation
func (s *Service) Batch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if err := validator.ValidateIDs(req.IDs); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		return BatchResult{}, err
	}

	switch action {
	case ActionDelete:
		return s.BatchDelete(ctx, req.IDs)
	case ActionMarkAsRead:
		return s.BatchMark(ctx, req.IDs, true)
	default:
		return s.BatchMark(ctx, req.IDs, false)
	}
}

// BatchDelete removes every existing book among ids in one atomic step
func (s *Service) BatchDelete(ctx context.Context, ids []string) (BatchResult, error) {
	if err := validator.ValidateIDs(ids); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	removed, err := s.repo.RemoveMany(ctx, ids)
	if err != nil {
		return BatchResult{}, fmt.Errorf("batch delete: %w", err)
	}

	metrics.ObserveMutation("batch_delete", removed)
	logger.Info("Batch delete", "requested", len(ids), "removed", removed)
	return BatchResult{Action: ActionDelete, Requested: len(ids), Affected: removed}, nil
}

// BatchMark sets the read flag on every existing book among ids. Every found
// book is counted, including those that already had the target value.
func (s *Service) BatchMark(ctx context.Context, ids []string, read bool) (BatchResult, error) {
	if err := validator.ValidateIDs(ids); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	action := ActionMarkAsUnread
	if read {
		action = ActionMarkAsRead
	}

	updated, err := s.repo.SetRead(ctx, ids, read)
	if err != nil {
		return BatchResult{}, fmt.Errorf("batch %s: %w", action, err)
	}

	metrics.ObserveMutation("batch_"+string(action), updated)
	logger.Info("Batch mark", "read", read, "requested", len(ids), "updated", updated)
	return BatchResult{Action: action, Requested: len(ids), Affected: updated}, nil
}
