package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrChargeInvalid       = errors.New("charge payload missing product id or email")
	ErrEventHandled        = errors.New("webhook event already handled")
	ErrVerificationExpired = errors.New("download verification expired")
)
