package domain

import "errors"

var (
	// ErrTopicNotFound is returned when a topic ID is not in the catalog.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrResourceNotFound is returned when a resource ID is not in the catalog.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrDatasetNotFound is returned when a dataset ID is not in the catalog.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrEquipmentNotFound is returned when an equipment ID is not in the catalog.
	ErrEquipmentNotFound = errors.New("equipment not found")
	// ErrCareerNotFound is returned when a career pathway ID is not in the catalog.
	ErrCareerNotFound = errors.New("career pathway not found")
	// ErrCatalogNotFound indicates the catalog content could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrSessionNotFound is returned when a questionnaire session has not been initialized.
	ErrSessionNotFound = errors.New("questionnaire session not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidCatalog is returned when questionnaire data fails load-time validation.
	ErrInvalidCatalog = errors.New("invalid questionnaire catalog")
	// ErrUnresolvedAnswers is returned by strict scoring when answers reference unknown IDs.
	ErrUnresolvedAnswers = errors.New("answers reference unknown catalog entries")
	// ErrInvalidReservation is returned for malformed reservation requests.
	ErrInvalidReservation = errors.New("invalid reservation")
	// ErrEquipmentUnavailable is returned when reserving equipment marked Unavailable.
	ErrEquipmentUnavailable = errors.New("equipment unavailable")
	// ErrReservationConflict is returned when a reservation overlaps an active one.
	ErrReservationConflict = errors.New("reservation overlaps an existing reservation")
	// ErrReservationNotFound is returned when a reservation ID is unknown.
	ErrReservationNotFound = errors.New("reservation not found")
)
