package deployer

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// VerifyResult carries the verification verdict together with both compared
// values for diagnostics. It is a policy check, not a cryptographic one: a
// substitution that happens to be a substring of the submitted bytecode
// would pass. That limitation is accepted; the check exists to catch
// transport corruption and wrong-artifact mistakes, not adversaries.
type VerifyResult struct {
	Match     bool
	Deployed  []byte
	Submitted []byte
}

func (r VerifyResult) DeployedHex() string {
	return strings.ToUpper(hex.EncodeToString(r.Deployed))
}

func (r VerifyResult) SubmittedHex() string {
	return strings.ToUpper(hex.EncodeToString(r.Submitted))
}

// VerifyCode checks that the code stored on-chain is a contiguous
// subsequence of the submitted bytecode. Exact equality is not expected:
// the execution environment strips constructor and other init-only
// instructions from the stored code.
func VerifyCode(deployed, submitted []byte) VerifyResult {
	return VerifyResult{
		// Empty on-chain code never verifies; bytes.Contains would
		// trivially accept it.
		Match:     len(deployed) > 0 && bytes.Contains(submitted, deployed),
		Deployed:  deployed,
		Submitted: submitted,
	}
}
