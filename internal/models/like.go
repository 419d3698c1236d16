package models

import (
	"errors"
	"fmt"
)

// LikeKind names the kind of entity a like points at.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindTweet   LikeKind = "tweet"
	LikeKindComment LikeKind = "comment"
)

// ErrInvalidLikeTarget is returned when a like target cannot be constructed.
var ErrInvalidLikeTarget = errors.New("invalid like target")

// ParseLikeKind validates a raw kind string.
func ParseLikeKind(raw string) (LikeKind, error) {
	switch LikeKind(raw) {
	case LikeKindVideo, LikeKindTweet, LikeKindComment:
		return LikeKind(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidLikeTarget, raw)
	}
}

// Title returns the capitalised kind used in user-facing messages.
func (k LikeKind) Title() string {
	switch k {
	case LikeKindVideo:
		return "Video"
	case LikeKindTweet:
		return "Tweet"
	case LikeKindComment:
		return "Comment"
	default:
		return string(k)
	}
}

// LikeTarget identifies exactly one likeable entity. The zero value is not a
// valid target; use NewLikeTarget.
type LikeTarget struct {
	kind LikeKind
	id   string
}

// NewLikeTarget builds a target from a kind and an entity identifier.
func NewLikeTarget(kind LikeKind, id string) (LikeTarget, error) {
	if _, err := ParseLikeKind(string(kind)); err != nil {
		return LikeTarget{}, err
	}
	if id == "" {
		return LikeTarget{}, fmt.Errorf("%w: empty %s id", ErrInvalidLikeTarget, kind)
	}
	return LikeTarget{kind: kind, id: id}, nil
}

// Kind returns the target's entity kind.
func (t LikeTarget) Kind() LikeKind { return t.kind }

// ID returns the target's entity identifier.
func (t LikeTarget) ID() string { return t.id }

// IsZero reports whether the target was never constructed.
func (t LikeTarget) IsZero() bool { return t.kind == "" }
