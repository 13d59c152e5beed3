package pages

import "github.com/a-h/templ"

var (
	codeAttrs = templ.Attributes{
		"inputmode":    "numeric",
		"pattern":      "[0-9]{6}",
		"maxlength":    "6",
		"required":     true,
		"autocomplete": "one-time-code",
	}
	newPasswordAttrs = templ.Attributes{
		"required":     true,
		"minlength":    "8",
		"autocomplete": "new-password",
	}
	currentPasswordAttrs = templ.Attributes{
		"required":     true,
		"autocomplete": "current-password",
	}
)

var totpCodeAttrs = templ.Attributes{
	"inputmode": "numeric",
	"maxlength": "6",
	"required":  true,
}
