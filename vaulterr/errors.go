// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package vaulterr defines the error taxonomy shared by the vault, the
// Noise XX handshake, and the secure channel.
package vaulterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether it is a caller bug
// to surface, a transient condition, or fatal to the owning handshake or
// channel.
type Kind int

const (
	_ Kind = iota
	InvalidArgument
	UnknownHandle
	NotExportable
	NotAPrivateKey
	WrongKeyType
	WrongCurve
	IllegalTransition
	AuthFailed
	WeakPoint
	RandomUnavailable
	RandomShort
	NonceExhausted
	TransportShort
	TransportClosed
	ProtocolViolation
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case UnknownHandle:
		return "unknown handle"
	case NotExportable:
		return "not exportable"
	case NotAPrivateKey:
		return "not a private key"
	case WrongKeyType:
		return "wrong key type"
	case WrongCurve:
		return "wrong curve"
	case IllegalTransition:
		return "illegal transition"
	case AuthFailed:
		return "authentication failed"
	case WeakPoint:
		return "weak point"
	case RandomUnavailable:
		return "random source unavailable"
	case RandomShort:
		return "short random read"
	case NonceExhausted:
		return "nonce exhausted"
	case TransportShort:
		return "short transport read"
	case TransportClosed:
		return "transport closed"
	case ProtocolViolation:
		return "protocol violation"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned across package boundaries. Op
// names the failing operation (e.g. "vault.Export", "xx.ReadMessage2") so
// that a wrapped error remains legible once it has propagated to the top of
// a handshake or channel.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind, looking through wrapping.
func Is(err error, k Kind) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind == k
	}
	return false
}

// New constructs a *Error with no wrapped cause.
func New(k Kind, op string) error {
	return &Error{Kind: k, Op: op}
}

// Wrap constructs a *Error wrapping err, or returns nil if err is nil.
func Wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// Sentinel errors for the handshake and channel layers. Any of these is
// fatal to the handshake or channel instance that produced it; callers
// must discard the instance rather than retry an operation on it.
var (
	ErrHandshakeAuthFailed = errors.New("noise: handshake authentication failed")
	ErrHandshakeWeakPoint  = errors.New("noise: handshake produced a weak-point DH output")
	ErrHandshakeProtocol   = errors.New("noise: malformed handshake message")
	ErrChannelClosed       = errors.New("channel: unusable after a prior error")
	ErrNonceExhausted      = errors.New("channel: nonce counter exhausted")
)

// Terminal wraps err with the exported sentinel matching its Kind, if any,
// so a caller can check errors.Is against one stable value regardless of
// which operation produced the error. It is meant to be called only at a
// genuine terminal boundary (a handshake failing, or a session closing),
// never at a surface error a caller can recover from on the same instance
// (a session's per-frame decrypt failure, for instance, stays a bare
// AuthFailed *Error — see channel/session). Kinds with no terminal
// sentinel, and non-*Error values, are returned unchanged.
func Terminal(err error) error {
	var ve *Error
	if !errors.As(err, &ve) {
		return err
	}
	switch ve.Kind {
	case AuthFailed:
		return fmt.Errorf("%w: %w", ErrHandshakeAuthFailed, err)
	case WeakPoint:
		return fmt.Errorf("%w: %w", ErrHandshakeWeakPoint, err)
	case ProtocolViolation:
		return fmt.Errorf("%w: %w", ErrHandshakeProtocol, err)
	case NonceExhausted:
		return fmt.Errorf("%w: %w", ErrNonceExhausted, err)
	case TransportClosed:
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	default:
		return err
	}
}
