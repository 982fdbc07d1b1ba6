package contact

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	portcontact "github.com/alanyang/prodline/internal/port/contact"
)

var handlePattern = regexp.MustCompile(`^[0-9]{7,15}$`)

// Normalize strips the formatting people usually type around a phone number:
// a leading '+', spaces, dashes and parentheses.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '+', ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

type Service struct {
	dir portcontact.Directory
}

func NewService(dir portcontact.Directory) *Service {
	return &Service{dir: dir}
}

// SetHandle registers the messaging handle notifications for actor go to.
// The stored form is digits only; the gateway adds its channel prefix.
func (s *Service) SetHandle(ctx context.Context, actor uuid.UUID, raw string) (string, error) {
	handle := Normalize(raw)
	if err := validation.Validate(handle,
		validation.Required,
		validation.Match(handlePattern).Error("must be 7 to 15 digits"),
	); err != nil {
		return "", fmt.Errorf("set handle: %w: %v", domainpipeline.ErrInvalidInput, err)
	}
	if err := s.dir.SetHandle(ctx, actor, handle); err != nil {
		return "", fmt.Errorf("set handle: %w", err)
	}
	return handle, nil
}

func (s *Service) HandleFor(ctx context.Context, actor uuid.UUID) (string, error) {
	h, err := s.dir.HandleFor(ctx, actor)
	if err != nil {
		return "", fmt.Errorf("get handle: %w", err)
	}
	return h, nil
}
