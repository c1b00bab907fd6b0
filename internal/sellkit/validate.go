package sellkit

import (
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/mysellkit/popup-engine/pkg/errors"
)

var validate = validator.New()

// validateConfig checks the identity fields the engine cannot run
// without. Optional fields already carry their defaults by now, so a
// sparse-but-identified config always passes.
func validateConfig(cfg *PopupConfig) error {
	if err := validate.Struct(cfg); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "popup config incomplete")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "popup config validation")
	}
	return nil
}
