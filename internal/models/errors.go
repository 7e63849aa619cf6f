package models

import "errors"

var validationErrors = []error{
	ErrInvalidCategory,
	ErrEmptyName, ErrNameTooLong, ErrInvalidDirection, ErrInvalidTargetValue,
	ErrNegativeThreshold, ErrThresholdOrder, ErrNonFiniteNumber,
	ErrEmptyKpiID, ErrPeriodConflict, ErrInvalidWeekNumber, ErrMissingPeriod, ErrCommentTooLong,
	ErrEmptyTitle, ErrTitleTooLong, ErrZeroDueDate, ErrInvalidPriority, ErrInvalidActionStatus,
	ErrInvalidSeverity, ErrInvalidProblemStatus,
	ErrEmptyContent, ErrContentTooLong,
	ErrInvalidTimestamp, ErrInvalidDate,
}

// IsValidation reports whether err comes from rejecting user input.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
