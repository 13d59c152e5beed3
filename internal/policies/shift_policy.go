package policies

import "github.com/PauloHFS/hcportal/internal/db"

// CanManageShift: só o profissional dono pode aceitar, recusar ou cancelar.
// Admins não agem em nome de ninguém.
func CanManageShift(actor db.User, shift db.Shift) bool {
	return actor.ID != 0 && actor.ID == shift.UserID
}
