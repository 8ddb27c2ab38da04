//go:generate mockgen -destination=../mocks/social.go -package=mocks github.com/mrsingh-rishi/teahouse/social Messenger,LikeBackend

package social

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	referralPrefix  = "user_"
	referralCodeLen = 7

	InviteMessage = "Join me on Hamlet Unified! Engage with Iraqi democracy like never before: %s"
)

var (
	ErrInvalidPhone    = errors.New("social: phone number must be in E.164 format")
	ErrInvitesDisabled = errors.New("social: sms invitations are not configured")
)

// Messenger delivers a text message to a phone number and returns its id.
type Messenger interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type Referrals struct {
	messenger Messenger
}

// NewReferrals builds the referral service. messenger may be nil, in which
// case Invite fails.
func NewReferrals(messenger Messenger) *Referrals {
	return &Referrals{messenger: messenger}
}

// NewCode returns "user_" followed by seven lowercase base-36 characters.
func NewCode() string {
	id := uuid.New()
	s := new(big.Int).SetBytes(id[:]).Text(36)
	for len(s) < referralCodeLen {
		s = "0" + s
	}
	return referralPrefix + s[len(s)-referralCodeLen:]
}

// ShareURL appends the referral code to origin as ?ref=.
func ShareURL(origin, code string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.TrimRight(origin, "/") + "?ref=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// Invite texts shareURL to phone.
func (r *Referrals) Invite(ctx context.Context, phone, shareURL string) (string, error) {
	if r.messenger == nil {
		return "", ErrInvitesDisabled
	}
	phone = strings.TrimSpace(phone)
	if !validE164(phone) {
		return "", ErrInvalidPhone
	}
	id, err := r.messenger.Send(ctx, phone, fmt.Sprintf(InviteMessage, shareURL))
	if err != nil {
		return "", fmt.Errorf("send invitation: %w", err)
	}
	return id, nil
}

func validE164(phone string) bool {
	if len(phone) < 8 || len(phone) > 16 || phone[0] != '+' {
		return false
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
