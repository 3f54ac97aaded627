package notification

import (
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/messaging"
)

// DeliveryError is a provider failure carrying a code next to its message.
type DeliveryError struct {
	Code    string
	Message string
}

func (e *DeliveryError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Codes meaning the token or request itself is bad; resending cannot help.
var permanentCodes = []string{
	"invalid-registration-token",
	"registration-token-not-registered",
	"invalid-argument",
	"invalid-package-name",
	"third-party-auth-error",
	"mismatched-credential",
	"authentication-error",
}

// ErrorCode maps an FCM error to its messaging/* code, or "" when unknown.
func ErrorCode(err error) string {
	var de *DeliveryError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de) && de.Code != "":
		return de.Code
	case messaging.IsUnregistered(err):
		return "messaging/registration-token-not-registered"
	case messaging.IsInvalidArgument(err):
		return "messaging/invalid-argument"
	case messaging.IsSenderIDMismatch(err):
		return "messaging/mismatched-credential"
	case messaging.IsThirdPartyAuthError(err):
		return "messaging/third-party-auth-error"
	}
	return ""
}

// IsPermanent reports whether err is a delivery failure that no retry can fix.
// Both the code and the message text are matched, since providers are not consistent about where the code goes.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	haystack := strings.ToLower(ErrorCode(err) + " " + err.Error())
	for _, code := range permanentCodes {
		if strings.Contains(haystack, code) {
			return true
		}
	}
	return false
}

// Describe renders err for the reminder's error fields, keeping the provider code.
func Describe(err error) string {
	code := ErrorCode(err)
	msg := err.Error()
	if code == "" || strings.Contains(msg, code) {
		return msg
	}
	return fmt.Sprintf("%s: %s", code, msg)
}
