package directory

// Account control flags used by this package. The directory stores them
// as a single userAccountControl bitmask.
// https://learn.microsoft.com/en-us/windows/win32/adschema/a-useraccountcontrol
const (
	accountDisabledFlag         = 0x2
	lockoutFlag                 = 0x10
	normalAccountFlag           = 0x200
	workstationTrustAccountFlag = 0x1000
	dontExpirePasswordFlag      = 0x10000
	passwordExpiredFlag         = 0x800000
)

// UAC represents the account control flags relevant to account lifecycle
// management: activation, lockout, password expiry and the account class.
type UAC struct {
	AccountDisabled         bool
	Lockout                 bool
	NormalAccount           bool
	WorkstationTrustAccount bool
	DontExpirePassword      bool
	PasswordExpired         bool
}

// UACFromUint32 decodes a raw userAccountControl value.
func UACFromUint32(v uint32) UAC {
	return UAC{
		AccountDisabled:         v&accountDisabledFlag != 0,
		Lockout:                 v&lockoutFlag != 0,
		NormalAccount:           v&normalAccountFlag != 0,
		WorkstationTrustAccount: v&workstationTrustAccountFlag != 0,
		DontExpirePassword:      v&dontExpirePasswordFlag != 0,
		PasswordExpired:         v&passwordExpiredFlag != 0,
	}
}

// Uint32 encodes the flags back into a raw userAccountControl value.
func (u UAC) Uint32() uint32 {
	var v uint32

	if u.AccountDisabled {
		v |= accountDisabledFlag
	}

	if u.Lockout {
		v |= lockoutFlag
	}

	if u.NormalAccount {
		v |= normalAccountFlag
	}

	if u.WorkstationTrustAccount {
		v |= workstationTrustAccountFlag
	}

	if u.DontExpirePassword {
		v |= dontExpirePasswordFlag
	}

	if u.PasswordExpired {
		v |= passwordExpiredFlag
	}

	return v
}
