package routing

import "github.com/rs/zerolog"

// Enforcer gates DM-only actions.
type Enforcer struct {
	log zerolog.Logger
}

func NewEnforcer(log zerolog.Logger) *Enforcer {
	return &Enforcer{log: log}
}

// EnforceDMAction reports whether the sender may perform action. A refusal is
// logged and never surfaces as an error.
func (e *Enforcer) EnforceDMAction(uid string, isDM bool, action string) bool {
	if isDM {
		return true
	}
	e.log.Warn().
		Str("uid", uid).
		Str("action", action).
		Msg("unauthorized DM action attempt")
	return false
}
