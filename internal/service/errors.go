package service

import "errors"

// Sentinel errors mapped to API error codes by the handlers.
var (
	ErrTemplateNotDraft     = errors.New("template is not in DRAFT status")
	ErrTemplateNotPublished = errors.New("template is not published")
	ErrInvalidBlueprint     = errors.New("blueprint does not match the assessment goal")
	ErrEmptyAssembly        = errors.New("no questions could be assembled")
	ErrSessionTerminal      = errors.New("session is already terminal")
	ErrQuestionNotInSet     = errors.New("question is not part of the session")
	ErrBackNotAllowed       = errors.New("back navigation is disabled for this template")
	ErrIndexOutOfRange      = errors.New("navigation index out of range")
	ErrResultNotReady       = errors.New("result is not available yet")
	ErrInvalidTaxonomy      = errors.New("invalid taxonomy definition")
)
