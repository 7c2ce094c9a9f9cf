package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"idsim/internal/backend"
	corrmodels "idsim/internal/correlation/models"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/idp/models"
	dErrors "idsim/pkg/domain-errors"
)

// AddAccessor registers a new key for a mode 2/3 subject. The accessor id
// the backend assigns is merged into the pending record and committed on
// add_accessor_result.
func (s *Service) AddAccessor(ctx context.Context, req *models.AccessorRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "add_accessor", subjectAttrs(req.Namespace, req.Identifier)...)
	defer func() { endSpan(span, err) }()

	subject, err := s.accessorSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}
	pair, err := s.generateKeys()
	if err != nil {
		return nil, err
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindAddAccessor, corrmodels.Payload{
		Namespace:          subject.Namespace,
		Identifier:         subject.Identifier,
		GroupCode:          subject.GroupCode,
		AccessorID:         req.AccessorID,
		AccessorPublicKey:  pair.PublicKey,
		AccessorPrivateKey: pair.PrivateKey,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.AddAccessor(ctx, subject.Namespace, subject.Identifier, backend.AddAccessorRequest{
		ReferenceID:       token,
		CallbackURL:       s.cfg.Callbacks.Accessor,
		AccessorType:      s.accessorType(req.AccessorType),
		AccessorPublicKey: pair.PublicKey,
		AccessorID:        req.AccessorID,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindAddAccessor, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) {
		p.RequestID = resp.RequestID
		if resp.AccessorID != "" {
			p.AccessorID = resp.AccessorID
		}
	})
	return &models.OperationResult{ReferenceID: token, RequestID: resp.RequestID, AccessorID: resp.AccessorID}, nil
}

// RevokeAccessor revokes one of the subject's accessors.
func (s *Service) RevokeAccessor(ctx context.Context, req *models.AccessorRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "revoke_accessor", append(subjectAttrs(req.Namespace, req.Identifier),
		attribute.String("accessor.id", req.AccessorID))...)
	defer func() { endSpan(span, err) }()

	if req.AccessorID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "accessor_id is required")
	}
	subject, err := s.accessorSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}
	if !subject.HasAccessor(req.AccessorID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "accessor is not registered for identity")
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindRevokeAccessor, corrmodels.Payload{
		Namespace:  subject.Namespace,
		Identifier: subject.Identifier,
		GroupCode:  subject.GroupCode,
		AccessorID: req.AccessorID,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.RevokeAccessor(ctx, subject.Namespace, subject.Identifier, backend.RevokeAccessorRequest{
		ReferenceID: token,
		CallbackURL: s.cfg.Callbacks.AccessorRevoke,
		AccessorID:  req.AccessorID,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindRevokeAccessor, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) { p.RequestID = resp.RequestID })
	return &models.OperationResult{ReferenceID: token, RequestID: resp.RequestID, AccessorID: req.AccessorID}, nil
}

// RevokeAndAddAccessor replaces RevokingAccessorID with a freshly generated
// key. The new id takes the old one's position on commit.
func (s *Service) RevokeAndAddAccessor(ctx context.Context, req *models.AccessorRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "revoke_and_add_accessor", append(subjectAttrs(req.Namespace, req.Identifier),
		attribute.String("accessor.revoking_id", req.RevokingAccessorID))...)
	defer func() { endSpan(span, err) }()

	if req.RevokingAccessorID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "revoking_accessor_id is required")
	}
	subject, err := s.accessorSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}
	if !subject.HasAccessor(req.RevokingAccessorID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "accessor is not registered for identity")
	}
	pair, err := s.generateKeys()
	if err != nil {
		return nil, err
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindRevokeAndAddAccessor, corrmodels.Payload{
		Namespace:          subject.Namespace,
		Identifier:         subject.Identifier,
		GroupCode:          subject.GroupCode,
		AccessorID:         req.AccessorID,
		RevokingAccessorID: req.RevokingAccessorID,
		AccessorPublicKey:  pair.PublicKey,
		AccessorPrivateKey: pair.PrivateKey,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.RevokeAndAddAccessor(ctx, subject.Namespace, subject.Identifier, backend.RevokeAndAddAccessorRequest{
		ReferenceID:        token,
		CallbackURL:        s.cfg.Callbacks.AccessorRevokeAndAdd,
		RevokingAccessorID: req.RevokingAccessorID,
		AccessorType:       s.accessorType(req.AccessorType),
		AccessorPublicKey:  pair.PublicKey,
		AccessorID:         req.AccessorID,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindRevokeAndAddAccessor, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) {
		p.RequestID = resp.RequestID
		if resp.AccessorID != "" {
			p.AccessorID = resp.AccessorID
		}
	})
	return &models.OperationResult{ReferenceID: token, RequestID: resp.RequestID, AccessorID: resp.AccessorID}, nil
}

// RevokeAssociation ends this IdP's association with the subject. On
// commit the subject and all its accessors are removed.
func (s *Service) RevokeAssociation(ctx context.Context, req *models.AccessorRequest) (result *models.OperationResult, err error) {
	ctx, span := s.startSpan(ctx, "revoke_association", subjectAttrs(req.Namespace, req.Identifier)...)
	defer func() { endSpan(span, err) }()

	subject, err := s.accessorSubject(ctx, req.Namespace, req.Identifier)
	if err != nil {
		return nil, err
	}

	ctx, token, err := s.begin(ctx, req.ReferenceID, corrmodels.KindRevokeAssociation, corrmodels.Payload{
		Namespace:  subject.Namespace,
		Identifier: subject.Identifier,
		GroupCode:  subject.GroupCode,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.RevokeAssociation(ctx, subject.Namespace, subject.Identifier, backend.RevokeAssociationRequest{
		ReferenceID: token,
		CallbackURL: s.cfg.Callbacks.AssociationRevoke,
	})
	if err != nil {
		return nil, s.rollback(ctx, token, corrmodels.KindRevokeAssociation, err)
	}
	s.mergeAfterCall(ctx, token, func(p *corrmodels.Payload) { p.RequestID = resp.RequestID })
	return &models.OperationResult{ReferenceID: token, RequestID: resp.RequestID}, nil
}

// accessorSubject loads a subject that is allowed to hold accessors.
func (s *Service) accessorSubject(ctx context.Context, namespace, identifier string) (*idmodels.Subject, error) {
	subject, err := s.findSubject(ctx, namespace, identifier)
	if err != nil {
		return nil, err
	}
	if !subject.RequiresAccessor() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mode 1 identity has no accessors")
	}
	return subject, nil
}

func (s *Service) accessorType(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.AccessorType
}
