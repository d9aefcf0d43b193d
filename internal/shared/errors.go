package shared

import "errors"

// MaxCartQuantity caps the units a single cart line may hold.
const MaxCartQuantity = 9999

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates no identity is bound to the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the bound identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTransient indicates a collaborator store did not answer in time.
	ErrTransient = errors.New("transient store failure")
	// ErrValidation indicates user supplied input was rejected.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidQuantity indicates a cart quantity outside 1..MaxCartQuantity.
	ErrInvalidQuantity = errors.New("quantity out of range")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage converts an error into text that can be shown to end users
// without leaking internals such as account existence or driver messages.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Usuario o contraseña incorrectos"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return "El recurso solicitado no existe"
	case errors.Is(err, ErrUnauthorized):
		return "Debe iniciar sesión para continuar"
	case errors.Is(err, ErrInvalidQuantity):
		return "La cantidad debe ser un entero entre 1 y 9999"
	case errors.Is(err, ErrDuplicate):
		return "Ya existe un registro con esos datos"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrTransient):
		return "El servicio no está disponible en este momento, intente de nuevo"
	default:
		return "Ocurrió un error inesperado"
	}
}
