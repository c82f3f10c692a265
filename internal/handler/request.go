package handler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iliyamo/ticket-escrow/internal/registry"
	"github.com/iliyamo/ticket-escrow/internal/utils"
)

// registerReq is the body of POST /v1/auth/register.  Passwords are capped
// at 72 bytes, the most bcrypt reads.
type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize lowercases and trims the email so lookups are case-insensitive.
func (r *registerReq) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *registerReq) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(utils.MinPasswordLength, 72)),
	)
}

// loginReq is the body of POST /v1/auth/login.
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginReq) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// refreshReq carries a raw refresh token for refresh, refresh-access and
// logout.
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *refreshReq) Validate() error {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type deployReq struct {
	Name string `json:"name"` // optional registry display name
}

func (r *deployReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.By(maxRunes(registry.MaxNameLength))),
	)
}

// maxRunes limits a string to n characters rather than n bytes.
func maxRunes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); utf8.RuneCountInString(s) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// configureReq leaves value rules (price, percentages) to the engine so the
// response code names the domain error.  Omitted percentages take the
// defaults of a new event.
type configureReq struct {
	Price                uint64  `json:"price"`
	Supply               uint64  `json:"supply"`
	CancellationDeadline uint64  `json:"cancellation_deadline"`
	PenaltyPercentage    *uint64 `json:"penalty_percentage"`
	RoyaltyPercentage    *uint64 `json:"royalty_percentage"`
}

const (
	defaultPenaltyPercentage = 10
	defaultRoyaltyPercentage = 5
)

// pctOr returns *p, or def when the field was omitted.  An explicit 0 is
// kept, so a zero penalty or royalty can be configured.
func pctOr(p *uint64, def uint64) uint64 {
	if p == nil {
		return def
	}
	return *p
}

// paymentReq is the body of issue and buy.
type paymentReq struct {
	Payment uint64 `json:"payment"`
}

// priceReq is the body of list.
type priceReq struct {
	Price uint64 `json:"price"`
}

// amountReq is the body of withdraw and deposit.
type amountReq struct {
	Amount uint64 `json:"amount"`
}
