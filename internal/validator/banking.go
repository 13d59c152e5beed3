package validator

import (
	"regexp"
	"strings"
)

var (
	ibanShape = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bicShape  = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// NormalizeIBAN remove espaços e coloca em maiúsculas.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}

// ValidIBAN checks shape, length (15..34) and the ISO 13616 mod-97 checksum.
func ValidIBAN(iban string) bool {
	iban = NormalizeIBAN(iban)
	if !ibanShape.MatchString(iban) {
		return false
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			remainder = (remainder*100 + v) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

func ValidBIC(bic string) bool {
	return bicShape.MatchString(strings.ToUpper(strings.TrimSpace(bic)))
}

// IBANLast4 devolve os quatro últimos caracteres do IBAN normalizado.
func IBANLast4(iban string) string {
	iban = NormalizeIBAN(iban)
	if len(iban) <= 4 {
		return iban
	}
	return iban[len(iban)-4:]
}
