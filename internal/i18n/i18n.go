package i18n

import (
	"context"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
)

const (
	English    = "en"
	Portuguese = "pt"
)

// Supported lista os locales aceitos nas configurações da conta.
var Supported = []string{English, Portuguese}

type Translation struct {
	Login          string
	Logout         string
	Email          string
	Password       string
	Register       string
	ForgotPassword string
	Welcome        string
	Save           string
	Continue       string
	Delete         string
	Cancel         string

	Profile     string
	MyShifts    string
	Languages   string
	Software    string
	BankAccount string
	Settings    string
	Admin       string

	Upcoming string
	Past     string
	Accept   string
	Decline  string
	NoShifts string
	Previous string
	Next     string
	Hours    string
	Earnings string
}

var ptBR = Translation{
	Login:          "Entrar",
	Logout:         "Sair",
	Email:          "E-mail",
	Password:       "Senha",
	Register:       "Registrar",
	ForgotPassword: "Esqueci minha senha",
	Welcome:        "Bem-vindo",
	Save:           "Salvar",
	Continue:       "Continuar",
	Delete:         "Excluir",
	Cancel:         "Cancelar",

	Profile:     "Perfil",
	MyShifts:    "Meus turnos",
	Languages:   "Idiomas",
	Software:    "Softwares",
	BankAccount: "Conta bancária",
	Settings:    "Configurações",
	Admin:       "Administração",

	Upcoming: "Próximos",
	Past:     "Anteriores",
	Accept:   "Aceitar",
	Decline:  "Recusar",
	NoShifts: "Nenhum turno por aqui.",
	Previous: "Anterior",
	Next:     "Próxima",
	Hours:    "Horas",
	Earnings: "Ganhos",
}

var enUS = Translation{
	Login:          "Sign in",
	Logout:         "Sign out",
	Email:          "Email",
	Password:       "Password",
	Register:       "Create account",
	ForgotPassword: "Forgot password",
	Welcome:        "Welcome",
	Save:           "Save",
	Continue:       "Continue",
	Delete:         "Delete",
	Cancel:         "Cancel",

	Profile:     "Profile",
	MyShifts:    "My Shifts",
	Languages:   "Languages",
	Software:    "Software",
	BankAccount: "Bank Account",
	Settings:    "Settings",
	Admin:       "Admin",

	Upcoming: "Upcoming",
	Past:     "Past",
	Accept:   "Accept",
	Decline:  "Decline",
	NoShifts: "No shifts here yet.",
	Previous: "Previous",
	Next:     "Next",
	Hours:    "Hours",
	Earnings: "Earnings",
}

// Locale devolve o idioma gravado no contexto pelo middleware.
func Locale(ctx context.Context) string {
	if locale, ok := ctx.Value(contextkeys.LocaleKey).(string); ok && IsSupported(locale) {
		return locale
	}
	return English
}

func IsSupported(locale string) bool {
	return locale == English || locale == Portuguese
}

// Get retorna as traduções baseadas no idioma do contexto
func Get(ctx context.Context) Translation {
	switch Locale(ctx) {
	case Portuguese:
		return ptBR
	default:
		return enUS
	}
}
