// Package zkp implements the anonymous membership proof used for login.
//
// A member's identity is a ristretto255 scalar sk and its public commitment is
// sk·G. A proof is a linkable ring signature (LSAG) over the ordered set of
// commitments: it shows that the prover knows the secret behind one of them
// without revealing which. The nullifier is sk·H(scope); it is the same for
// every proof one identity produces under one scope, which lets the server
// reject replays while learning nothing about the member.
//
//	proof, err := zkp.GenerateProof(identity, group, common.MessageTag, sessionID)
//	ok := zkp.VerifyProof(proof, group)
package zkp
