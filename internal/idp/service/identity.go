package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"idsim/internal/backend"
	corrmodels "idsim/internal/correlation/models"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/identity/store"
	"idsim/internal/idp/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
	"idsim/pkg/platform/sentinel"
	"idsim/pkg/requestcontext"
)

// CreateIdentity registers a subject. Mode 1 commits locally; modes 2 and 3
// start the two-phase backend flow and commit on create_identity_result.
func (s *Service) CreateIdentity(ctx context.Context, req *models.CreateIdentityRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "create_identity", append(subjectAttrs(req.Namespace, req.Identifier),
		attribute.Int("identity.mode", req.Mode))...)
	defer func() { endSpan(span, err) }()

	existing, err := s.subjects.FindSubject(ctx, req.Namespace, req.Identifier)
	switch {
	case err == nil && existing != nil:
		return nil, dErrors.New(dErrors.CodeConflict, "identity already exists")
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	if req.Mode == idmodels.Mode1 {
		return s.createLocal(ctx, req)
	}
	return s.beginCreate(ctx, req.ReferenceID, req.AccessorType, corrmodels.Payload{
		Namespace:  req.Namespace,
		Identifier: req.Identifier,
		IAL:        req.IAL,
		AAL:        req.AAL,
		Response:   req.Response,
		Delay:      req.Delay,
		Mode:       req.Mode,
	})
}

func (s *Service) createLocal(ctx context.Context, req *models.CreateIdentityRequest) (*models.OperationResult, error) {
	now := requestcontext.Now(ctx)
	subject := &idmodels.Subject{
		Namespace:   req.Namespace,
		Identifier:  req.Identifier,
		AccessorIDs: []string{},
		IAL:         req.IAL,
		AAL:         req.AAL,
		Response:    req.Response,
		Delay:       req.Delay,
		Mode:        idmodels.Mode1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.tx.RunInTx(ctx, subject.Key(), func(ctx context.Context, st store.Store) error {
		if _, err := st.FindSubject(ctx, subject.Namespace, subject.Identifier); err == nil {
			return dErrors.New(dErrors.CodeConflict, "identity already exists")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return st.SaveSubject(ctx, subject)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save identity")
	}

	s.emit(ctx, events.Event{
		Type:       events.TypeIdentityCreated,
		Outcome:    events.OutcomeCommitted,
		Namespace:  subject.Namespace,
		Identifier: subject.Identifier,
	})
	s.logger.InfoContext(ctx, "identity created", "namespace", subject.Namespace, "identifier", subject.Identifier, "mode", subject.Mode)
	return &models.OperationResult{Committed: true}, nil
}

// beginCreate issues the backend create with a fresh accessor key pair. It
// also serves mode 1 subjects being upgraded, which the backend has never
// seen.
func (s *Service) beginCreate(ctx context.Context, referenceID, accessorType string, payload corrmodels.Payload) (*models.OperationResult, error) {
	pair, err := s.generateKeys()
	if err != nil {
		return nil, err
	}
	payload.AccessorPublicKey = pair.PublicKey
	payload.AccessorPrivateKey = pair.PrivateKey
	if accessorType == "" {
		accessorType = s.cfg.AccessorType
	}

	ctx, token, err := s.begin(ctx, referenceID, corrmodels.KindCreateIdentity, payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.CreateIdentity(ctx, backend.CreateIdentityRequest{
		ReferenceID:       token,
		CallbackURL:       s.cfg.Callbacks.Identity,
		IdentityList:      []backend.IdentityEntry{{Namespace: payload.Namespace, Identifier: payload.Identifier}},
		AccessorType:      accessorType,
		AccessorPublicKey: pair.PublicKey,
		IAL:               payload.IAL,
		Mode:              payload.Mode,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindCreateIdentity, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) {
		p.RequestID = resp.RequestID
		p.Exist = resp.Exist
		if resp.AccessorID != "" {
			p.AccessorID = resp.AccessorID
		}
	})

	s.logger.InfoContext(ctx, "identity creation requested",
		"reference_id", token,
		"request_id", resp.RequestID,
		"namespace", payload.Namespace,
		"identifier", payload.Identifier,
		"mode", payload.Mode,
	)
	return &models.OperationResult{
		ReferenceID: token,
		RequestID:   resp.RequestID,
		AccessorID:  resp.AccessorID,
		Exist:       resp.Exist,
	}, nil
}

// UpdateMode raises a subject to mode 2 or 3. A mode 1 subject has no
// backend record yet, so it is created at the target mode with its current
// settings.
func (s *Service) UpdateMode(ctx context.Context, req *models.UpdateModeRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "update_mode", append(subjectAttrs(req.Namespace, req.Identifier),
		attribute.Int("identity.mode", req.Mode))...)
	defer func() { endSpan(span, err) }()

	subject, err := s.findSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}
	if req.Mode <= subject.Mode {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mode can only be raised")
	}

	if subject.Mode == idmodels.Mode1 {
		return s.beginCreate(ctx, req.ReferenceID, "", corrmodels.Payload{
			Namespace:  subject.Namespace,
			Identifier: subject.Identifier,
			IAL:        subject.IAL,
			AAL:        subject.AAL,
			Response:   subject.Response,
			Delay:      subject.Delay,
			Mode:       req.Mode,
		})
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindUpgradeMode, corrmodels.Payload{
		Namespace:  subject.Namespace,
		Identifier: subject.Identifier,
		GroupCode:  subject.GroupCode,
		Mode:       req.Mode,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.UpgradeIdentityMode(ctx, subject.Namespace, subject.Identifier, backend.UpgradeModeRequest{
		ReferenceID:    token,
		CallbackURL:    s.cfg.Callbacks.Mode,
		RequestMessage: s.cfg.UpgradeMessage,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindUpgradeMode, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) { p.RequestID = resp.RequestID })
	return &models.OperationResult{ReferenceID: token, RequestID: resp.RequestID}, nil
}

// UpdateIAL changes the assurance level. Mode 1 subjects are updated in
// place; others wait for update_ial_result.
func (s *Service) UpdateIAL(ctx context.Context, req *models.UpdateIALRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "update_ial", subjectAttrs(req.Namespace, req.Identifier)...)
	defer func() { endSpan(span, err) }()

	subject, err := s.findSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}

	if subject.Mode == idmodels.Mode1 {
		if err := s.updateLocal(ctx, subject.Namespace, subject.Identifier, func(sub *idmodels.Subject) {
			sub.IAL = req.IAL
		}); err != nil {
			return nil, err
		}
		s.emit(ctx, events.Event{
			Type:       events.TypeIALUpdated,
			Outcome:    events.OutcomeCommitted,
			Namespace:  subject.Namespace,
			Identifier: subject.Identifier,
		})
		return &models.OperationResult{Committed: true}, nil
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindUpdateIAL, corrmodels.Payload{
		Namespace:  subject.Namespace,
		Identifier: subject.Identifier,
		GroupCode:  subject.GroupCode,
		IAL:        req.IAL,
	})
	if err != nil {
		return nil, err
	}
	err = s.backend.UpdateIAL(ctx, subject.Namespace, subject.Identifier, backend.UpdateIALRequest{
		ReferenceID: token,
		CallbackURL: s.cfg.Callbacks.IAL,
		IAL:         req.IAL,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindUpdateIAL, err)
	}
	return &models.OperationResult{ReferenceID: token}, nil
}

// UpdateIdentity edits how the IdP answers for a subject. These settings
// are local and never reach the backend.
func (s *Service) UpdateIdentity(ctx context.Context, req *models.UpdateIdentityRequest) (*idmodels.Subject, error) {
	var updated *idmodels.Subject
	err := s.updateLocal(ctx, req.Namespace, req.Identifier, func(sub *idmodels.Subject) {
		if req.AAL != nil {
			sub.AAL = *req.AAL
		}
		if req.Response != nil {
			sub.Response = *req.Response
		}
		if req.Delay != nil {
			sub.Delay = *req.Delay
		}
		updated = sub.Clone()
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) updateLocal(ctx context.Context, namespace, identifier string, mutate func(*idmodels.Subject)) error {
	err := s.tx.RunInTx(ctx, idmodels.SubjectKey(namespace, identifier), func(ctx context.Context, st store.Store) error {
		subject, err := st.FindSubject(ctx, namespace, identifier)
		if err != nil {
			return err
		}
		mutate(subject)
		subject.UpdatedAt = requestcontext.Now(ctx)
		return st.SaveSubject(ctx, subject)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "unknown identity")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update identity")
	}
}
