package types

import "errors"

var (
	ErrInvalidPeriod        = errors.New("invalid time period: expected \"previous\" or \"YYYY-MM-DD_YYYY-MM-DD\"")
	ErrInvalidMode          = errors.New("invalid report mode: expected account, bu or service (optionally with -daily)")
	ErrUnsupportedFormat    = errors.New("unsupported report format: expected csv, excel, json, pdf, both or all")
	ErrEmptyConfig          = errors.New("configuration file is empty")
	ErrMissingAccountGroups = errors.New("configuration has no account-groups section")
	ErrMissingSSGroup       = errors.New("account-groups must define the \"ss\" shared services unit")
	ErrInvalidTopCount      = errors.New("top-costs-count must define positive account and service counts")
	ErrInvalidAllocation    = errors.New("ss-allocation percentages must be in (0, 100] and name configured business units")
	ErrCredentialCheck      = errors.New("AWS credential check failed. Verify the profile and try again")
)
