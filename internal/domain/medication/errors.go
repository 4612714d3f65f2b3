package medication

import "errors"

var ErrMedicationNotFound = errors.New("medication not found")
