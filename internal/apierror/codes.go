package apierror

// Problem type URIs for the "type" field of RFC 9457 Problem Details
const (
	// TypeValidation indicates an entry or query failed validation (400)
	TypeValidation = "urn:moodlens:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:moodlens:error:not_found"

	// TypeDuplicateEntry indicates an entry with the same id already exists (409)
	TypeDuplicateEntry = "urn:moodlens:error:duplicate_entry"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:moodlens:error:rate_limit"

	// TypeUnauthorized indicates missing or invalid authentication (401)
	TypeUnauthorized = "urn:moodlens:error:unauthorized"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:moodlens:error:internal"

	// TypeUnavailable indicates a collaborator (auth, storage) is down (503)
	TypeUnavailable = "urn:moodlens:error:unavailable"

	// TypeInvalidUUID indicates a client entry id that is not a UUIDv7 (400)
	TypeInvalidUUID = "urn:moodlens:error:invalid_uuid"

	// TypeFutureTimestamp indicates a timestamp too far in the future (400)
	TypeFutureTimestamp = "urn:moodlens:error:future_timestamp"

	// TypeBadRequest indicates a malformed request body or query (400)
	TypeBadRequest = "urn:moodlens:error:bad_request"
)

// Titles for each problem type
const (
	TitleValidation      = "Validation Error"
	TitleNotFound        = "Resource Not Found"
	TitleDuplicateEntry  = "Duplicate Entry"
	TitleRateLimit       = "Rate Limit Exceeded"
	TitleUnauthorized    = "Authentication Required"
	TitleInternal        = "Internal Server Error"
	TitleUnavailable     = "Service Unavailable"
	TitleInvalidUUID     = "Invalid Entry ID"
	TitleFutureTimestamp = "Future Timestamp Not Allowed"
	TitleBadRequest      = "Bad Request"
)
