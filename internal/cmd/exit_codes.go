package cmd

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/spf13/pflag"
)

const (
	exitOK        = 0
	exitGeneric   = 1
	exitUsage     = 2
	exitAuth      = 3
	exitNotFound  = 4
	exitForbidden = 5
	exitServer    = 7
	exitNetwork   = 8
)

// structuredExit maps classified API errors to exit codes. Codes absent
// from the map (ErrUnknown, ErrUnrecognized) fall through to the heuristics.
var structuredExit = map[api.ErrorCode]int{
	api.ErrUnauthorized: exitAuth,
	api.ErrForbidden:    exitForbidden,
	api.ErrNotFound:     exitNotFound,
	api.ErrServerError:  exitServer,
	api.ErrTimeout:      exitNetwork,
	api.ErrNetwork:      exitNetwork,
	api.ErrBadRequest:   exitUsage,
	api.ErrValidation:   exitUsage,
	api.ErrConflict:     exitUsage,
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if structured := api.StructuredErrorFromError(err); structured != nil {
		if code := structuredExit[structured.Code]; code != 0 {
			return code
		}
	}
	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

// isNetworkError matches transport-level failures. url.Error and
// net.OpError both satisfy net.Error, so one interface check covers the
// usual wrapping; message hints catch what arrives as bare strings.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{
		"connection refused",
		"no such host",
		"tls",
		"certificate",
		"i/o timeout",
		"timeout",
	} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

var usageIndicators = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"flag provided but not defined",
	"requires at least",
	"requires exactly",
	"invalid argument",
	"invalid value",
	"must be",
	"is required",
	"missing",
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range usageIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
