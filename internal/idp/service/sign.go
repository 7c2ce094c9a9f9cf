package service

import (
	"context"
	"errors"

	"idsim/internal/backend"
	"idsim/internal/identity/keys"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/sentinel"
)

// Sign answers a backend challenge with an accessor's private key. The key
// comes from a committed accessor, or from the pending operation that is
// still creating it. Nothing is written.
func (s *Service) Sign(ctx context.Context, req backend.SignRequest) (backend.SignResponse, error) {
	privateKey, err := s.signingKey(ctx, req)
	if err != nil {
		return backend.SignResponse{}, err
	}

	var signature string
	if req.RequestMessagePaddedHash != "" {
		signature, err = keys.SignPaddedHash(privateKey, req.RequestMessagePaddedHash)
	} else {
		signature, err = keys.Sign(privateKey, []byte(req.Message))
	}
	if err != nil {
		return backend.SignResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign challenge")
	}
	return backend.SignResponse{Signature: signature}, nil
}

func (s *Service) signingKey(ctx context.Context, req backend.SignRequest) (string, error) {
	if req.AccessorID != "" {
		accessor, err := s.subjects.FindAccessor(ctx, req.AccessorID)
		switch {
		case err == nil:
			return accessor.PrivateKey, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load accessor")
		}
	}
	if req.ReferenceID != "" {
		op, err := s.engine.Get(ctx, req.ReferenceID)
		switch {
		case err == nil && op.Payload.AccessorPrivateKey != "":
			return op.Payload.AccessorPrivateKey, nil
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending operation")
		}
	}
	s.logger.WarnContext(ctx, "no key for sign request",
		"accessor_id", req.AccessorID,
		"reference_id", req.ReferenceID,
	)
	return "", dErrors.New(dErrors.CodeNotFound, "accessor key not found")
}
