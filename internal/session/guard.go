package session

type View int

const (
	ViewLogin View = iota
	ViewTwoFactor
	ViewProtected
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "allow"
	}
}

// Guard decides whether a view may render in state s. It is pure.
func Guard(s State, v View) Decision {
	switch v {
	case ViewProtected:
		if s == Authenticated {
			return Allow
		}
		return RedirectLogin
	case ViewTwoFactor:
		if s == PendingTwoFactor {
			return Allow
		}
		return RedirectLogin
	case ViewLogin:
		if s == Authenticated {
			return RedirectHome
		}
		return Allow
	}
	return RedirectLogin
}
