package apperr

import "github.com/tuanvumaihuynh/inventory-sale/pkg/zerror"

const (
	ValidationErrorCode      = "VALIDATION_FAILED"
	EmptyCartCode            = "EMPTY_CART"
	InvalidQuantityCode      = "INVALID_QUANTITY"
	ProductNotFoundCode      = "PRODUCT_NOT_FOUND"
	CategoryNotFoundCode     = "CATEGORY_NOT_FOUND"
	CategoryExistsCode       = "CATEGORY_ALREADY_EXISTS"
	SaleNotFoundCode         = "SALE_NOT_FOUND"
	InsufficientStockCode    = "INSUFFICIENT_STOCK"
	StockConflictCode        = "CONCURRENT_STOCK_CONFLICT"
	DuplicateSaleCode        = "DUPLICATE_SALE"
	DuplicateRequestCode     = "DUPLICATE_REQUEST"
	CommitTimeoutCode        = "COMMIT_TIMEOUT"
	StorageFailureCode       = "STORAGE_FAILURE"
	SaleOutcomeUnknownCode   = "SALE_OUTCOME_UNKNOWN"
	TooManyRequestsErrorCode = "TOO_MANY_REQUESTS"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	EmptyCartErr       = zerror.NewValidationFailed(EmptyCartCode, "cart has no lines")
	InvalidQuantityErr = zerror.NewValidationFailed(InvalidQuantityCode, "quantity must be a positive integer within range")

	ProductNotFoundErr  = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	CategoryNotFoundErr = zerror.NewNotFound(CategoryNotFoundCode, "category not found")
	CategoryExistsErr   = zerror.NewConflict(CategoryExistsCode, "category name already taken")
	SaleNotFoundErr     = zerror.NewNotFound(SaleNotFoundCode, "sale not found")

	InsufficientStockErr = zerror.NewUnprocessableEntity(InsufficientStockCode, "not enough stock")
	StockConflictErr     = zerror.NewConflict(StockConflictCode, "stock changed while the sale was being committed")
	DuplicateSaleErr     = zerror.NewConflict(DuplicateSaleCode, "sale already recorded")
	DuplicateRequestErr  = zerror.NewConflict(DuplicateRequestCode, "request with this idempotency key is already in progress or done")

	CommitTimeoutErr  = zerror.NewTimeout(CommitTimeoutCode, "sale commit timed out and was rolled back")
	StorageFailureErr = zerror.NewServiceUnavailable(StorageFailureCode, "storage unavailable")
	// SaleOutcomeUnknownErr is returned when a commit failed and the ledger could not
	// be read to tell whether the sale landed. Look the sale up before retrying.
	SaleOutcomeUnknownErr = zerror.NewServiceUnavailable(SaleOutcomeUnknownCode, "sale outcome could not be confirmed")

	TooManyRequestsErr = zerror.NewTooManyRequests(TooManyRequestsErrorCode, "too many requests")
)
