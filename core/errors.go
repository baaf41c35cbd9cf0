package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	BrokerErrorBadInput         = "BROKER_BAD_INPUT"
	BrokerErrorVaultLocked      = "BROKER_VAULT_LOCKED"
	BrokerErrorVaultNotFound    = "BROKER_VAULT_NOT_FOUND"
	BrokerErrorEntryNotFound    = "BROKER_ENTRY_NOT_FOUND"
	BrokerErrorGroupNotFound    = "BROKER_GROUP_NOT_FOUND"
	BrokerErrorNotAssociated    = "BROKER_NOT_ASSOCIATED"
	BrokerErrorAccessDenied     = "BROKER_ACCESS_DENIED"
	BrokerErrorPromptDeclined   = "BROKER_PROMPT_DECLINED"
	BrokerErrorPromptBusy       = "BROKER_PROMPT_BUSY"
	BrokerErrorSessionNotFound  = "BROKER_SESSION_NOT_FOUND"
	BrokerErrorOperationFailed  = "BROKER_OPERATION_FAILED"
	BrokerErrorInternal         = "BROKER_INTERNAL_ERROR"
)

func brokerErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureBrokerErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "vault") && strings.Contains(msg, "locked"):
		return newBrokerError(err.Error(), goerrors.CategoryConflict, BrokerErrorVaultLocked)
	case strings.Contains(msg, "vault") && strings.Contains(msg, "not found"):
		return newBrokerError(err.Error(), goerrors.CategoryNotFound, BrokerErrorVaultNotFound)
	case strings.Contains(msg, "entry") && strings.Contains(msg, "not found"):
		return newBrokerError(err.Error(), goerrors.CategoryNotFound, BrokerErrorEntryNotFound)
	case strings.Contains(msg, "group") && strings.Contains(msg, "not found"):
		return newBrokerError(err.Error(), goerrors.CategoryNotFound, BrokerErrorGroupNotFound)
	case strings.Contains(msg, "not associated"), strings.Contains(msg, "unknown client"):
		return newBrokerError(err.Error(), goerrors.CategoryAuth, BrokerErrorNotAssociated)
	case strings.Contains(msg, "denied"), strings.Contains(msg, "refused"):
		return newBrokerError(err.Error(), goerrors.CategoryAuthz, BrokerErrorAccessDenied)
	case strings.Contains(msg, "prompt") && strings.Contains(msg, "active"):
		return newBrokerError(err.Error(), goerrors.CategoryConflict, BrokerErrorPromptBusy)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newBrokerError(err.Error(), goerrors.CategoryBadInput, BrokerErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureBrokerErrorEnvelope(mapped)
}

func newBrokerError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureBrokerErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureBrokerErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = brokerHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultBrokerTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultBrokerTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return BrokerErrorBadInput
	case goerrors.CategoryNotFound:
		return BrokerErrorEntryNotFound
	case goerrors.CategoryAuth:
		return BrokerErrorNotAssociated
	case goerrors.CategoryAuthz:
		return BrokerErrorAccessDenied
	case goerrors.CategoryConflict:
		return BrokerErrorPromptBusy
	case goerrors.CategoryOperation:
		return BrokerErrorOperationFailed
	default:
		return BrokerErrorInternal
	}
}

func brokerHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
