package booking

import "errors"

type Code string

const (
	CodeAlreadyBooked  Code = "ALREADY_BOOKED"
	CodeSlotTaken      Code = "SLOT_TAKEN"
	CodePastDate       Code = "PAST_DATE"
	CodeInvalidToken   Code = "INVALID_TOKEN"
	CodeOutsideHours   Code = "OUTSIDE_HOURS"
	CodeUnknownService Code = "UNKNOWN_SERVICE"
	CodeInvalidState   Code = "INVALID_STATE"
)

// Error is a business rule rejection. Message is safe to show to clients.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

var (
	ErrAlreadyBooked  = &Error{CodeAlreadyBooked, "Ya tenés un turno activo. Cancelalo para hacer otro."}
	ErrSlotTaken      = &Error{CodeSlotTaken, "Ese horario ya está reservado. Elegí otro."}
	ErrPastDate       = &Error{CodePastDate, "No podés reservar en fechas pasadas."}
	ErrInvalidToken   = &Error{CodeInvalidToken, "Token inválido o turno ya cancelado"}
	ErrOutsideHours   = &Error{CodeOutsideHours, "Ese horario no está disponible para la fecha elegida."}
	ErrUnknownService = &Error{CodeUnknownService, "El servicio elegido no existe o no está activo."}
	ErrNotCompletable = &Error{CodeInvalidState, "Un turno cancelado no puede marcarse como completado."}
)

var ErrNotFound = errors.New("appointment not found")

// AsError extracts a rule error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
