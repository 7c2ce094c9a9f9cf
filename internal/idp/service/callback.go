package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"idsim/internal/backend"
	"idsim/internal/correlation"
	corrmodels "idsim/internal/correlation/models"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/identity/store"
	"idsim/pkg/platform/events"
	"idsim/pkg/platform/sentinel"
	"idsim/pkg/requestcontext"
)

var (
	// errInconsistent marks a callback whose local preconditions are gone,
	// e.g. the subject was removed while the operation was in flight.
	errInconsistent = errors.New("inconsistent local state")
	// errAlreadyApplied marks a duplicate delivery that lost the race for
	// the subject lock.
	errAlreadyApplied = errors.New("callback already applied")
	// errNotEnded marks a committed callback whose pending record survived.
	errNotEnded = errors.New("pending operation not ended")
)

// completion describes how a terminal callback commits its flow.
type completion struct {
	kind  corrmodels.Kind
	event events.Type
	// needsAccessorID waits for the backend-assigned accessor id to be
	// merged before applying.
	needsAccessorID bool
	apply           func(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, cb backend.Callback) (accessorID string, err error)
}

// HandleCallback applies one backend callback. Unknown tokens and duplicate
// deliveries are logged no-ops. Only an unrecognized type or an
// infrastructure failure is returned.
func (s *Service) HandleCallback(ctx context.Context, cb backend.Callback) error {
	if cb.ReferenceID != "" {
		ctx = requestcontext.WithReferenceID(ctx, cb.ReferenceID)
	}

	switch cb.Type {
	case backend.TypeCreateIdentityRequestResult:
		return s.onRequestResult(ctx, cb, corrmodels.KindCreateIdentity, events.TypeIdentityCreated)
	case backend.TypeCreateIdentityResult:
		return s.complete(ctx, cb, completion{
			kind:            corrmodels.KindCreateIdentity,
			event:           events.TypeIdentityCreated,
			needsAccessorID: true,
			apply:           s.applyCreateIdentity,
		})
	case backend.TypeUpgradeModeRequestResult:
		return s.onRequestResult(ctx, cb, corrmodels.KindUpgradeMode, events.TypeModeUpgraded)
	case backend.TypeUpgradeModeResult:
		return s.complete(ctx, cb, completion{
			kind:  corrmodels.KindUpgradeMode,
			event: events.TypeModeUpgraded,
			apply: s.applyUpgradeMode,
		})
	case backend.TypeUpdateIALResult:
		return s.complete(ctx, cb, completion{
			kind:  corrmodels.KindUpdateIAL,
			event: events.TypeIALUpdated,
			apply: s.applyUpdateIAL,
		})
	case backend.TypeAddAccessorResult:
		return s.complete(ctx, cb, completion{
			kind:            corrmodels.KindAddAccessor,
			event:           events.TypeAccessorAdded,
			needsAccessorID: true,
			apply:           s.applyAddAccessor,
		})
	case backend.TypeRevokeAccessorResult:
		return s.complete(ctx, cb, completion{
			kind:  corrmodels.KindRevokeAccessor,
			event: events.TypeAccessorRevoked,
			apply: s.applyRevokeAccessor,
		})
	case backend.TypeRevokeAndAddAccessorResult:
		return s.complete(ctx, cb, completion{
			kind:            corrmodels.KindRevokeAndAddAccessor,
			event:           events.TypeAccessorReplaced,
			needsAccessorID: true,
			apply:           s.applyRevokeAndAddAccessor,
		})
	case backend.TypeRevokeAssociationResult:
		return s.complete(ctx, cb, completion{
			kind:  corrmodels.KindRevokeAssociation,
			event: events.TypeAssociationRevoked,
			apply: s.applyRevokeAssociation,
		})
	case backend.TypeResponseResult:
		s.logger.InfoContext(ctx, "response result",
			"request_id", cb.RequestID,
			"success", cb.Success,
			"error", callbackError(cb),
		)
		return nil
	case backend.TypeError:
		s.logger.WarnContext(ctx, "backend reported error",
			"request_id", cb.RequestID,
			"error", callbackError(cb),
		)
		return nil
	default:
		return fmt.Errorf("%w: %q", backend.ErrUnknownCallbackType, cb.Type)
	}
}

// onRequestResult handles the first phase of a two-phase flow: failure
// ends the flow, success records what the backend learned and keeps waiting.
func (s *Service) onRequestResult(ctx context.Context, cb backend.Callback, kind corrmodels.Kind, event events.Type) (err error) {
	ctx, span := s.startSpan(ctx, "callback."+cb.Type, attribute.String("reference_id", cb.ReferenceID))
	defer func() { endSpan(span, err) }()

	op, err := s.awaitOperation(ctx, cb, kind, false)
	if err != nil || op == nil {
		return err
	}
	if !cb.Success {
		return s.discard(ctx, op, event, callbackError(cb))
	}

	err = s.engine.Merge(ctx, op.Token, func(p *corrmodels.Payload) {
		p.Exist = cb.Exist
		if cb.RequestID != "" {
			p.RequestID = cb.RequestID
		}
		if cb.ReferenceGroupCode != "" {
			p.GroupCode = cb.ReferenceGroupCode
		}
		if cb.AccessorID != "" && p.AccessorID == "" {
			p.AccessorID = cb.AccessorID
		}
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.InfoContext(ctx, "request result arrived after completion", "reference_id", op.Token)
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record request result", "reference_id", op.Token, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "request accepted by backend",
		"reference_id", op.Token,
		"kind", kind,
		"request_id", cb.RequestID,
		"exist", cb.Exist,
	)
	return nil
}

// complete applies a terminal callback at most once. The token is re-read
// under the subject lock and ended after the subject writes commit, still
// holding the lock, so a duplicate delivery waiting on the same lock finds
// it gone. A failed commit keeps the token for a redelivery.
func (s *Service) complete(ctx context.Context, cb backend.Callback, c completion) (err error) {
	ctx, span := s.startSpan(ctx, "callback."+cb.Type, attribute.String("reference_id", cb.ReferenceID))
	defer func() { endSpan(span, err) }()

	op, err := s.awaitOperation(ctx, cb, c.kind, c.needsAccessorID && cb.Success)
	if err != nil || op == nil {
		return err
	}
	if !cb.Success {
		return s.discard(ctx, op, c.event, callbackError(cb))
	}

	var (
		applied    *corrmodels.PendingOperation
		accessorID string
	)
	err = s.tx.RunInTx(ctx, op.Payload.SubjectKey(), func(ctx context.Context, st store.Store) error {
		current, err := s.engine.Get(ctx, op.Token)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return errAlreadyApplied
			}
			return err
		}
		accessorID, err = c.apply(ctx, st, current, cb)
		if err != nil {
			return err
		}
		applied = current
		return nil
	}, store.AfterCommit(func(ctx context.Context) error {
		if err := s.engine.End(ctx, op.Token); err != nil {
			return fmt.Errorf("%w: %w", errNotEnded, err)
		}
		return nil
	}))

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "operation committed",
			"reference_id", op.Token,
			"kind", c.kind,
			"namespace", applied.Payload.Namespace,
			"identifier", applied.Payload.Identifier,
			"accessor_id", accessorID,
		)
		s.emit(ctx, events.Event{
			Type:       c.event,
			Outcome:    events.OutcomeCommitted,
			RequestID:  firstNonEmpty(cb.RequestID, applied.Payload.RequestID),
			Namespace:  applied.Payload.Namespace,
			Identifier: applied.Payload.Identifier,
			AccessorID: accessorID,
		})
		return nil
	case errors.Is(err, errNotEnded):
		s.logger.ErrorContext(ctx, "operation committed but pending record kept",
			"reference_id", op.Token,
			"kind", c.kind,
			"error", err,
		)
		return err
	case errors.Is(err, errAlreadyApplied):
		s.logger.InfoContext(ctx, "duplicate callback ignored", "reference_id", op.Token, "type", cb.Type)
		return nil
	case errors.Is(err, errInconsistent):
		s.logger.WarnContext(ctx, "callback cannot be applied",
			"reference_id", op.Token,
			"kind", c.kind,
			"error", err,
		)
		return s.discard(ctx, op, c.event, err.Error())
	default:
		s.logger.ErrorContext(ctx, "failed to apply callback",
			"reference_id", op.Token,
			"kind", c.kind,
			"error", err,
		)
		return err
	}
}

// awaitOperation finds the pending record a callback refers to. A nil
// operation with a nil error means the callback should be ignored.
func (s *Service) awaitOperation(ctx context.Context, cb backend.Callback, kind corrmodels.Kind, needsAccessorID bool) (*corrmodels.PendingOperation, error) {
	var ready func(*corrmodels.PendingOperation) bool
	if needsAccessorID && cb.AccessorID == "" {
		ready = func(op *corrmodels.PendingOperation) bool { return op.Payload.AccessorID != "" }
	}

	op, err := s.engine.AwaitUntil(ctx, cb.ReferenceID, ready)
	switch {
	case err == nil, errors.Is(err, correlation.ErrNotReady):
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.InfoContext(ctx, "callback for unknown reference ignored",
			"reference_id", cb.ReferenceID,
			"type", cb.Type,
		)
		return nil, nil
	default:
		s.logger.ErrorContext(ctx, "failed to load pending operation", "reference_id", cb.ReferenceID, "error", err)
		return nil, err
	}

	if op.Kind != kind {
		s.logger.WarnContext(ctx, "callback does not match pending operation",
			"reference_id", cb.ReferenceID,
			"type", cb.Type,
			"kind", op.Kind,
		)
		return nil, nil
	}
	return op, nil
}

// discard ends a flow without touching committed state.
func (s *Service) discard(ctx context.Context, op *corrmodels.PendingOperation, event events.Type, reason string) error {
	if err := s.engine.End(ctx, op.Token); err != nil {
		s.logger.ErrorContext(ctx, "failed to end pending operation", "reference_id", op.Token, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "operation discarded",
		"reference_id", op.Token,
		"kind", op.Kind,
		"reason", reason,
	)
	s.emit(ctx, events.Event{
		Type:       event,
		Outcome:    events.OutcomeDiscarded,
		RequestID:  op.Payload.RequestID,
		Namespace:  op.Payload.Namespace,
		Identifier: op.Payload.Identifier,
		Reason:     reason,
	})
	return nil
}

func (s *Service) applyCreateIdentity(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, cb backend.Callback) (string, error) {
	p := op.Payload
	accessorID := firstNonEmpty(p.AccessorID, cb.AccessorID)
	if accessorID == "" {
		return "", fmt.Errorf("%w: no accessor id for created identity", errInconsistent)
	}
	now := requestcontext.Now(ctx)

	subject, err := st.FindSubject(ctx, p.Namespace, p.Identifier)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		subject = &idmodels.Subject{
			Namespace:  p.Namespace,
			Identifier: p.Identifier,
			CreatedAt:  now,
		}
	case err != nil:
		return "", err
	}

	subject.GroupCode = firstNonEmpty(cb.ReferenceGroupCode, p.GroupCode, subject.GroupCode)
	subject.IAL = p.IAL
	subject.AAL = p.AAL
	subject.Response = p.Response
	subject.Delay = p.Delay
	subject.Mode = p.Mode
	subject.AppendAccessor(accessorID)
	subject.UpdatedAt = now

	if err := st.SaveAccessor(ctx, &idmodels.Accessor{
		ID:         accessorID,
		GroupCode:  subject.GroupCode,
		PublicKey:  p.AccessorPublicKey,
		PrivateKey: p.AccessorPrivateKey,
		CreatedAt:  now,
	}); err != nil {
		return "", err
	}
	return accessorID, st.SaveSubject(ctx, subject)
}

func (s *Service) applyUpgradeMode(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, cb backend.Callback) (string, error) {
	subject, err := loadForUpdate(ctx, st, op.Payload)
	if err != nil {
		return "", err
	}
	subject.Mode = op.Payload.Mode
	if cb.ReferenceGroupCode != "" {
		subject.GroupCode = cb.ReferenceGroupCode
	}
	subject.UpdatedAt = requestcontext.Now(ctx)
	return "", st.SaveSubject(ctx, subject)
}

func (s *Service) applyUpdateIAL(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, _ backend.Callback) (string, error) {
	subject, err := loadForUpdate(ctx, st, op.Payload)
	if err != nil {
		return "", err
	}
	subject.IAL = op.Payload.IAL
	subject.UpdatedAt = requestcontext.Now(ctx)
	return "", st.SaveSubject(ctx, subject)
}

func (s *Service) applyAddAccessor(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, cb backend.Callback) (string, error) {
	p := op.Payload
	accessorID := firstNonEmpty(p.AccessorID, cb.AccessorID)
	if accessorID == "" {
		return "", fmt.Errorf("%w: no accessor id for added accessor", errInconsistent)
	}
	subject, err := loadForUpdate(ctx, st, p)
	if err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)
	if err := st.SaveAccessor(ctx, &idmodels.Accessor{
		ID:         accessorID,
		GroupCode:  subject.GroupCode,
		PublicKey:  p.AccessorPublicKey,
		PrivateKey: p.AccessorPrivateKey,
		CreatedAt:  now,
	}); err != nil {
		return "", err
	}
	subject.AppendAccessor(accessorID)
	subject.UpdatedAt = now
	return accessorID, st.SaveSubject(ctx, subject)
}

func (s *Service) applyRevokeAccessor(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, _ backend.Callback) (string, error) {
	p := op.Payload
	subject, err := loadForUpdate(ctx, st, p)
	if err != nil {
		return "", err
	}
	if !subject.RemoveAccessor(p.AccessorID) {
		s.logger.WarnContext(ctx, "revoked accessor was not listed", "accessor_id", p.AccessorID)
	}
	subject.UpdatedAt = requestcontext.Now(ctx)
	if err := st.SaveSubject(ctx, subject); err != nil {
		return "", err
	}
	return p.AccessorID, st.DeleteAccessor(ctx, p.AccessorID)
}

func (s *Service) applyRevokeAndAddAccessor(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, cb backend.Callback) (string, error) {
	p := op.Payload
	newID := firstNonEmpty(p.AccessorID, cb.AccessorID)
	if newID == "" {
		return "", fmt.Errorf("%w: no accessor id for replacement accessor", errInconsistent)
	}
	subject, err := loadForUpdate(ctx, st, p)
	if err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)
	if !subject.ReplaceAccessor(p.RevokingAccessorID, newID) {
		s.logger.WarnContext(ctx, "replaced accessor was not listed",
			"accessor_id", p.RevokingAccessorID,
			"new_accessor_id", newID,
		)
		subject.AppendAccessor(newID)
	}
	subject.UpdatedAt = now
	// The new key lands before the subject lists it and the old key goes
	// after the subject drops it, so a reader never sees a listed id
	// without its key.
	if err := st.SaveAccessor(ctx, &idmodels.Accessor{
		ID:         newID,
		GroupCode:  subject.GroupCode,
		PublicKey:  p.AccessorPublicKey,
		PrivateKey: p.AccessorPrivateKey,
		CreatedAt:  now,
	}); err != nil {
		return "", err
	}
	if err := st.SaveSubject(ctx, subject); err != nil {
		return "", err
	}
	return newID, st.DeleteAccessor(ctx, p.RevokingAccessorID)
}

func (s *Service) applyRevokeAssociation(ctx context.Context, st store.Store, op *corrmodels.PendingOperation, _ backend.Callback) (string, error) {
	subject, err := loadForUpdate(ctx, st, op.Payload)
	if err != nil {
		return "", err
	}
	if err := st.DeleteSubject(ctx, subject.Namespace, subject.Identifier); err != nil {
		return "", err
	}
	for _, id := range subject.AccessorIDs {
		if err := st.DeleteAccessor(ctx, id); err != nil {
			return "", err
		}
	}
	return "", nil
}

// loadForUpdate reads the subject a flow targets. A missing subject means
// the flow can no longer be applied.
func loadForUpdate(ctx context.Context, st store.Store, p corrmodels.Payload) (*idmodels.Subject, error) {
	subject, err := st.FindSubject(ctx, p.Namespace, p.Identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("%w: identity %s not found", errInconsistent, p.SubjectKey())
	}
	return subject, err
}

func callbackError(cb backend.Callback) string {
	if cb.Error == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", cb.Error.Code, cb.Error.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
