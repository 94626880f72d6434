// Package domain defines the typed identifiers shared across modules.
//
// Each aggregate gets its own UUID-backed type so the compiler rejects
// cross-aggregate mixups (passing an AccountID where a RequestID is
// expected fails to compile instead of failing in production).
package domain

import (
	"github.com/google/uuid"

	dErrors "marina/pkg/domain-errors"
)

type (
	// AccountID identifies an identity record.
	AccountID uuid.UUID
	// BoatmanID identifies a boatman role profile.
	BoatmanID uuid.UUID
	// AgencyID identifies an agency role profile.
	AgencyID uuid.UUID
	// RequestID identifies an approval request.
	RequestID uuid.UUID
)

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id BoatmanID) String() string { return uuid.UUID(id).String() }
func (id AgencyID) String() string  { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }

// The wrappers marshal as canonical UUID strings so JSON payloads stay
// readable. Defined types do not inherit uuid.UUID's methods.

func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id BoatmanID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AgencyID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = AccountID(parsed)
	return nil
}

func (id *BoatmanID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = BoatmanID(parsed)
	return nil
}

func (id *AgencyID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = AgencyID(parsed)
	return nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BoatmanID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AgencyID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseAccountID parses an account ID from untrusted input.
func ParseAccountID(raw string) (AccountID, error) {
	parsed, err := parseUUID(raw, "account")
	return AccountID(parsed), err
}

// ParseBoatmanID parses a boatman profile ID from untrusted input.
func ParseBoatmanID(raw string) (BoatmanID, error) {
	parsed, err := parseUUID(raw, "boatman")
	return BoatmanID(parsed), err
}

// ParseAgencyID parses an agency profile ID from untrusted input.
func ParseAgencyID(raw string) (AgencyID, error) {
	parsed, err := parseUUID(raw, "agency")
	return AgencyID(parsed), err
}

// ParseRequestID parses an approval request ID from untrusted input.
func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw, "request")
	return RequestID(parsed), err
}
