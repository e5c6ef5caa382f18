package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxCatalogNameLength bounds product and supplier names.
	MaxCatalogNameLength = 255

	// MaxCommentsLength bounds reviewer comments and version notes.
	MaxCommentsLength = 4000

	// MaxSignatureLength bounds the typed signer name.
	MaxSignatureLength = 200

	// MaxReviewers is the maximum number of reviewers on one document.
	MaxReviewers = 20

	// MaxUploadSize is the per-file upload limit (50MB).
	MaxUploadSize = 50 << 20

	// MaxSearchLimit caps search page sizes.
	MaxSearchLimit = 100
)
