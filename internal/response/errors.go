package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Template-specific ─────────────────────────────────────────────
	ErrTemplateNotDraft     ErrCode = "TEMPLATE_NOT_DRAFT"
	ErrTemplateNotPublished ErrCode = "TEMPLATE_NOT_PUBLISHED"
	ErrMissingBlueprint     ErrCode = "MISSING_BLUEPRINT"
	ErrInvalidBlueprint     ErrCode = "INVALID_BLUEPRINT"
	ErrEmptyAssembly        ErrCode = "EMPTY_ASSEMBLY"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionTerminal  ErrCode = "SESSION_ALREADY_TERMINAL"
	ErrInvalidShareLink ErrCode = "INVALID_SHARE_LINK"
	ErrQuestionNotInSet ErrCode = "QUESTION_NOT_IN_SESSION"
	ErrBackNotAllowed   ErrCode = "BACK_NAVIGATION_DISABLED"

	// ─── Result-specific ───────────────────────────────────────────────
	ErrResultNotReady ErrCode = "RESULT_NOT_READY"
	ErrResultPending  ErrCode = "RESULT_PENDING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Template-specific ─────────────────────────────────────────────
	case ErrTemplateNotDraft:
		return "This template is not in DRAFT status."
	case ErrTemplateNotPublished:
		return "This template has not been published."
	case ErrMissingBlueprint:
		return "This assessment goal requires a blueprint."
	case ErrInvalidBlueprint:
		return "The blueprint does not match the assessment goal."
	case ErrEmptyAssembly:
		return "No questions could be assembled for this template."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionTerminal:
		return "This session has already finished."
	case ErrInvalidShareLink:
		return "The share link is invalid or has expired."
	case ErrQuestionNotInSet:
		return "This question is not part of the session."
	case ErrBackNotAllowed:
		return "Going back is disabled for this test."

	// ─── Result-specific ───────────────────────────────────────────────
	case ErrResultNotReady:
		return "The result is not available yet."
	case ErrResultPending:
		return "Scoring is still in progress. Please check back later."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
