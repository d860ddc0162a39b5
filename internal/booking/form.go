package booking

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"parkngo/internal/entities"
)

type FormState string

const (
	StateEmpty        FormState = "empty"
	StatePartiallySet FormState = "partially_set"
	StateComplete     FormState = "complete"
	StateSubmitted    FormState = "submitted"
)

const (
	MinDuration = 30 * time.Minute
	MaxDuration = 24 * time.Hour
)

// formFields are the non-window inputs checked on submit. Declaration
// order is evaluation order.
type formFields struct {
	LicensePlate string `validate:"required"`
	PhoneNumber  string `validate:"required"`
}

// Form collects the booking dialog's inputs and walks them through
// empty -> partially set -> complete -> submitted. A failed submit leaves
// every entered field in place so the user can correct and retry; only a
// successful submit (or Reset) clears the dialog.
type Form struct {
	window    Window
	plate     string
	phone     string
	submitted bool
	validate  *validator.Validate
}

func NewForm() *Form {
	return &Form{validate: validator.New()}
}

// SetStart records the start instant, normalized from the picker's local
// wall-clock value.
func (f *Form) SetStart(local time.Time) {
	f.window.Start = Normalize(local)
}

func (f *Form) SetEnd(local time.Time) {
	f.window.End = Normalize(local)
}

func (f *Form) SetLicensePlate(plate string) { f.plate = plate }
func (f *Form) SetPhoneNumber(phone string)  { f.phone = phone }

func (f *Form) Window() Window { return f.window }

func (f *Form) State() FormState {
	switch {
	case f.submitted:
		return StateSubmitted
	case f.window.IsComplete() && f.window.End.After(f.window.Start):
		return StateComplete
	case !f.window.Start.IsZero() || !f.window.End.IsZero():
		return StatePartiallySet
	default:
		return StateEmpty
	}
}

// Reset returns the form to empty, discarding the in-progress window.
// Called when the dialog closes or a different spot is selected.
func (f *Form) Reset() {
	f.window = Window{}
	f.plate = ""
	f.phone = ""
	f.submitted = false
}

// Submit runs the transition guards in order and, when they all pass,
// produces the write-once request payload priced by Quote. The first
// failing rule wins and no partial request is ever produced.
func (f *Form) Submit(lotID int, spot entities.ParkingSpot) (*entities.BookingRequest, error) {
	if f.window.Start.IsZero() {
		return nil, &ValidationError{Code: CodeMissingField, Field: "start_time", Message: "start time is required"}
	}
	if f.window.End.IsZero() {
		return nil, &ValidationError{Code: CodeMissingField, Field: "end_time", Message: "end time is required"}
	}
	if !f.window.End.After(f.window.Start) {
		return nil, &ValidationError{Code: CodeEndBeforeStart, Field: "end_time", Message: "end time must be after start time"}
	}
	d := f.window.Duration()
	if d < MinDuration {
		return nil, &ValidationError{Code: CodeDurationTooShort, Field: "end_time", Message: "minimum parking duration is 30 minutes"}
	}
	if d > MaxDuration {
		return nil, &ValidationError{Code: CodeDurationTooLong, Field: "end_time", Message: "cannot exceed 24 hours"}
	}
	if err := f.validate.Struct(formFields{LicensePlate: f.plate, PhoneNumber: f.phone}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := "license_plate"
			if verrs[0].StructField() == "PhoneNumber" {
				field = "phone_number"
			}
			return nil, &ValidationError{Code: CodeMissingField, Field: field, Message: field + " is required"}
		}
		return nil, err
	}

	est, err := Quote(f.window, spot.HourlyRate)
	if err != nil {
		return nil, err
	}

	f.submitted = true
	return &entities.BookingRequest{
		ParkingLot:   lotID,
		ParkingSpot:  spot.ID,
		LicensePlate: f.plate,
		PhoneNumber:  f.phone,
		StartTime:    f.window.Start,
		EndTime:      f.window.End,
		Cost:         est.Cost,
	}, nil
}
